package processor

import (
	"github.com/shopspring/decimal"

	"allocation-service/internal/models"
)

// Policy carries the fixed fulfillment constants. Defaults mirror the
// documented business rules; config may override them at startup.
type Policy struct {
	// DiscountThreshold splits the two discount bands: amounts above it
	// get DiscountRateHigh, the rest DiscountRateLow.
	DiscountThreshold decimal.Decimal
	DiscountRateHigh  decimal.Decimal
	DiscountRateLow   decimal.Decimal
	TaxRate           decimal.Decimal
	// ApprovalThreshold is the amount above which an order needs manual
	// approval.
	ApprovalThreshold decimal.Decimal
	// Warehouse is the single-warehouse routing stub.
	Warehouse string
}

// DefaultPolicy returns the documented default policy constants:
// 10%/5% discount split at 500, 7% tax, approval above 1000,
// everything routed to the main warehouse.
func DefaultPolicy() Policy {
	return Policy{
		DiscountThreshold: decimal.NewFromInt(500),
		DiscountRateHigh:  decimal.New(10, -2),
		DiscountRateLow:   decimal.New(5, -2),
		TaxRate:           decimal.New(7, -2),
		ApprovalThreshold: decimal.NewFromInt(1000),
		Warehouse:         "Main Warehouse",
	}
}

// Decision is the structured outcome of processing one order. On the
// credit-exceeded path only CreditExceeded and Status are meaningful.
type Decision struct {
	CreditExceeded bool            `json:"credit_exceeded"`
	Discount       decimal.Decimal `json:"discount"`
	Tax            decimal.Decimal `json:"tax"`
	RoutedTo       string          `json:"routed_to"`
	Total          decimal.Decimal `json:"total"`
	Status         string          `json:"status"`
}

// OrderProcessor evaluates a single order end-to-end: credit check,
// discount, tax, routing and the approval gate.
type OrderProcessor struct {
	policy Policy
}

// New creates a processor with the given policy
func New(policy Policy) *OrderProcessor {
	return &OrderProcessor{policy: policy}
}

// Process runs the one-shot decision sequence and mutates order.Status
// at most once.
//
// If the customer's balance plus the order amount exceeds the credit
// limit the order is terminally rejected: the status stays PENDING and
// no discount, tax or routing is computed. Re-processing after a manual
// credit adjustment is a caller responsibility.
//
// On the normal path the total is amount + discount + tax. The discount
// is added rather than subtracted, reproducing the upstream rule as
// written; see DESIGN.md for the open product question.
func (p *OrderProcessor) Process(order *models.FulfillmentOrder) Decision {
	if order.Customer.ExceedsCredit(order.Amount) {
		return Decision{
			CreditExceeded: true,
			Status:         order.Status,
		}
	}

	discount := p.applyDiscount(order.Amount)
	tax := order.Amount.Mul(p.policy.TaxRate)
	routedTo := p.routeOrder()
	total := order.Amount.Add(discount).Add(tax)

	if order.Amount.GreaterThan(p.policy.ApprovalThreshold) {
		order.Status = models.OrderStatusPendingApproval
	} else {
		order.Status = models.OrderStatusApproved
	}

	return Decision{
		Discount: discount,
		Tax:      tax,
		RoutedTo: routedTo,
		Total:    total,
		Status:   order.Status,
	}
}

func (p *OrderProcessor) applyDiscount(amount decimal.Decimal) decimal.Decimal {
	if amount.GreaterThan(p.policy.DiscountThreshold) {
		return amount.Mul(p.policy.DiscountRateHigh)
	}
	return amount.Mul(p.policy.DiscountRateLow)
}

// routeOrder is a single-warehouse stub; multi-warehouse routing is out
// of scope.
func (p *OrderProcessor) routeOrder() string {
	return p.policy.Warehouse
}
