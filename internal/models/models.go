package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerClass ranks customers for stock allocation
type CustomerClass string

const (
	ClassVIP     CustomerClass = "VIP"
	ClassRegular CustomerClass = "REGULAR"
)

// Rank returns the allocation priority of a class; lower ranks first
func (c CustomerClass) Rank() int {
	if c == ClassVIP {
		return 0
	}
	return 1
}

// ParseCustomerClass validates and normalizes a class string
func ParseCustomerClass(s string) (CustomerClass, error) {
	switch CustomerClass(s) {
	case ClassVIP:
		return ClassVIP, nil
	case ClassRegular:
		return ClassRegular, nil
	}
	return "", fmt.Errorf("unknown customer class: %q", s)
}

// AllocationOrder is an immutable stock request evaluated by the ledger
type AllocationOrder struct {
	CustomerClass CustomerClass `json:"customer_class"`
	Quantity      int           `json:"quantity"`
	OrderDate     time.Time     `json:"order_date"`
}

// NewAllocationOrder enforces the structural constraint quantity > 0
func NewAllocationOrder(class CustomerClass, quantity int, orderDate time.Time) (AllocationOrder, error) {
	if quantity <= 0 {
		return AllocationOrder{}, fmt.Errorf("order quantity must be positive, got %d", quantity)
	}
	return AllocationOrder{
		CustomerClass: class,
		Quantity:      quantity,
		OrderDate:     orderDate,
	}, nil
}

// Customer holds the financial state checked during fulfillment
type Customer struct {
	Name        string          `json:"name"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Balance     decimal.Decimal `json:"balance"`
}

// NewCustomer validates that limit and balance are non-negative
func NewCustomer(name string, creditLimit, balance decimal.Decimal) (*Customer, error) {
	if creditLimit.IsNegative() {
		return nil, fmt.Errorf("credit limit must be non-negative, got %s", creditLimit)
	}
	if balance.IsNegative() {
		return nil, fmt.Errorf("balance must be non-negative, got %s", balance)
	}
	return &Customer{Name: name, CreditLimit: creditLimit, Balance: balance}, nil
}

// ExceedsCredit reports whether balance plus the prospective amount
// would surpass the credit limit
func (c *Customer) ExceedsCredit(amount decimal.Decimal) bool {
	return c.Balance.Add(amount).GreaterThan(c.CreditLimit)
}

// Order statuses
const (
	OrderStatusPending         = "PENDING"
	OrderStatusPendingApproval = "PENDING_APPROVAL"
	OrderStatusApproved        = "APPROVED"
)

// FulfillmentOrder is a single order evaluated against a customer's credit.
// Status starts at PENDING and transitions at most once per Process call.
type FulfillmentOrder struct {
	Customer *Customer       `json:"-"`
	Amount   decimal.Decimal `json:"amount"`
	Status   string          `json:"status"`
}

// NewFulfillmentOrder validates amount >= 0 and starts the order at PENDING
func NewFulfillmentOrder(customer *Customer, amount decimal.Decimal) (*FulfillmentOrder, error) {
	if customer == nil {
		return nil, fmt.Errorf("order requires a customer")
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("order amount must be non-negative, got %s", amount)
	}
	return &FulfillmentOrder{
		Customer: customer,
		Amount:   amount,
		Status:   OrderStatusPending,
	}, nil
}

// Batch is a dated inventory lot tracked separately from the stock count.
// Batch numbers are not deduplicated; batches live in an append-only slice.
type Batch struct {
	BatchNumber string    `json:"batch_number"`
	Quantity    int       `json:"quantity"`
	ExpiryDate  time.Time `json:"expiry_date"`
}
