package domain

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderInTransit OrderStatus = "In Transit"
	OrderDelivered OrderStatus = "Delivered"
)

// Represents a customer delivery order handled by the surrounding application.
// The stop attributes are copied into a Stop when the order is routed.
// DeliveredAt is populated when the driver completes the stop.
type Order struct {
	OrderID       string
	Customer      string
	Address       string
	Priority      string
	Status        OrderStatus
	Location      Coordinates
	TrafficFactor float64
	TimeWindowEnd float64
	DeliveredAt   *time.Time
}

// Routable reports whether the order still needs to be visited.
func (o *Order) Routable() bool {
	return o.Status == OrderPending || o.Status == OrderInTransit
}

func (o *Order) ToStop() Stop {
	return Stop{
		ID:            o.OrderID,
		Location:      o.Location,
		TrafficFactor: o.TrafficFactor,
		TimeWindowEnd: o.TimeWindowEnd,
	}
}
