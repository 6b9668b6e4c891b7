package models

// OrderStatus is the lifecycle state of an order. Orders are only ever
// created IN_PROGRESS today; the terminal states are declared so a
// submission flow can be added without a schema change.
type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusSubmitted  OrderStatus = "SUBMITTED"
	OrderStatusClosed     OrderStatus = "CLOSED"
)
