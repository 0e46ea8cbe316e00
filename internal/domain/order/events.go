package order

import "time"

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderPending   = "OrderPending"
	EventOrderCompleted = "OrderCompleted"
	EventOrderCancelled = "OrderCancelled"
	EventOrderRemoved   = "OrderRemoved"
)

type OrderCreated struct {
	OrderID   string    `json:"order_id"`
	CreatedBy string    `json:"created_by"`
	Ticket    string    `json:"ticket"`
	Quantity  int       `json:"quantity"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderStatusChanged is published for the PENDING and CANCELLED transitions.
type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	CreatedBy string    `json:"created_by"`
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}

type OrderCompleted struct {
	OrderID     string    `json:"order_id"`
	CreatedBy   string    `json:"created_by"`
	Ticket      string    `json:"ticket"`
	Events      string    `json:"events"`
	Quantity    int       `json:"quantity"`
	Total       int64     `json:"total"`
	Vouchers    []Voucher `json:"vouchers"`
	CompletedAt time.Time `json:"completed_at"`
}

type OrderRemoved struct {
	OrderID   string    `json:"order_id"`
	RemovedAt time.Time `json:"removed_at"`
}
