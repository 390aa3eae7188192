package dto

import "time"

type OrderResponse struct {
	OrderID       string      `json:"order_id"`
	Customer      string      `json:"customer"`
	Address       string      `json:"address"`
	Priority      string      `json:"priority"`
	Status        string      `json:"status"`
	Location      Coordinates `json:"location"`
	TrafficFactor float64     `json:"traffic_factor"`
	TimeWindowEnd float64     `json:"time_window_end"`
	DeliveredAt   *time.Time  `json:"delivered_at"`
}

type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}
