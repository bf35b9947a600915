package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types; one event is emitted per decision point, in decision order
const (
	EventTypeStockAllocated         = "STOCK_ALLOCATED"
	EventTypeAllocationRejected     = "ALLOCATION_REJECTED"
	EventTypeSaleRecorded           = "SALE_RECORDED"
	EventTypeSaleRejected           = "SALE_REJECTED"
	EventTypeReorderAlert           = "REORDER_ALERT"
	EventTypeStockSufficient        = "STOCK_SUFFICIENT"
	EventTypeBatchAdded             = "BATCH_ADDED"
	EventTypeReplenishmentSuggested = "REPLENISHMENT_SUGGESTED"
	EventTypeOrderApproved          = "ORDER_APPROVED"
	EventTypeOrderPendingApproval   = "ORDER_PENDING_APPROVAL"
	EventTypeCreditExceeded         = "CREDIT_EXCEEDED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// AllocationEvent published per order in an allocation pass, covering
// both STOCK_ALLOCATED and ALLOCATION_REJECTED outcomes
type AllocationEvent struct {
	BaseEvent
	ProductName    string        `json:"product_name"`
	CustomerClass  CustomerClass `json:"customer_class"`
	OrderDate      time.Time     `json:"order_date"`
	Quantity       int           `json:"quantity"`
	RemainingStock int           `json:"remaining_stock,omitempty"`
	AvailableStock int           `json:"available_stock,omitempty"`
	Shortfall      int           `json:"shortfall,omitempty"`
}

// SaleEvent published when a sale is recorded or rejected
type SaleEvent struct {
	BaseEvent
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	RemainingStock int    `json:"remaining_stock"`
	Reason         string `json:"reason,omitempty"`
}

// ReorderEvent published after stock-level changes and reorder queries
type ReorderEvent struct {
	BaseEvent
	ProductName  string `json:"product_name"`
	StockLevel   int    `json:"stock_level"`
	ReorderPoint int    `json:"reorder_point"`
}

// BatchAddedEvent published when a batch is appended to the ledger
type BatchAddedEvent struct {
	BaseEvent
	ProductName string    `json:"product_name"`
	BatchNumber string    `json:"batch_number"`
	Quantity    int       `json:"quantity"`
	ExpiryDate  time.Time `json:"expiry_date"`
}

// ReplenishmentEvent published when a replenishment order is suggested
type ReplenishmentEvent struct {
	BaseEvent
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// OrderDecisionEvent published once per fulfillment decision, covering
// ORDER_APPROVED, ORDER_PENDING_APPROVAL and CREDIT_EXCEEDED outcomes
type OrderDecisionEvent struct {
	BaseEvent
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
	Discount     decimal.Decimal `json:"discount,omitempty"`
	Tax          decimal.Decimal `json:"tax,omitempty"`
	Total        decimal.Decimal `json:"total,omitempty"`
	RoutedTo     string          `json:"routed_to,omitempty"`
	Status       string          `json:"status"`
}
