package processor

import (
	"testing"

	"allocation-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCustomer(t *testing.T, limit, balance int64) *models.Customer {
	t.Helper()
	c, err := models.NewCustomer("rohan", decimal.NewFromInt(limit), decimal.NewFromInt(balance))
	require.NoError(t, err)
	return c
}

func newOrder(t *testing.T, customer *models.Customer, amount int64) *models.FulfillmentOrder {
	t.Helper()
	o, err := models.NewFulfillmentOrder(customer, decimal.NewFromInt(amount))
	require.NoError(t, err)
	return o
}

func TestProcessSmallOrderApproved(t *testing.T) {
	// Scenario C: limit 1000, balance 600, amount 100.
	p := New(DefaultPolicy())
	customer := newCustomer(t, 1000, 600)
	order := newOrder(t, customer, 100)

	decision := p.Process(order)

	assert.False(t, decision.CreditExceeded)
	assert.True(t, decision.Discount.Equal(decimal.NewFromInt(5)), "got %s", decision.Discount)
	assert.True(t, decision.Tax.Equal(decimal.NewFromInt(7)), "got %s", decision.Tax)
	assert.Equal(t, "Main Warehouse", decision.RoutedTo)
	assert.True(t, decision.Total.Equal(decimal.NewFromInt(112)), "got %s", decision.Total)
	assert.Equal(t, models.OrderStatusApproved, decision.Status)
	assert.Equal(t, models.OrderStatusApproved, order.Status)
}

func TestProcessCreditExceededLeavesOrderPending(t *testing.T) {
	// Scenario D: 600 + 1500 > 1000.
	p := New(DefaultPolicy())
	customer := newCustomer(t, 1000, 600)
	order := newOrder(t, customer, 1500)

	decision := p.Process(order)

	assert.True(t, decision.CreditExceeded)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, decision.Discount.IsZero())
	assert.True(t, decision.Tax.IsZero())
	assert.Empty(t, decision.RoutedTo)
}

func TestProcessLargeOrderNeedsApproval(t *testing.T) {
	p := New(DefaultPolicy())
	customer := newCustomer(t, 5000, 0)
	order := newOrder(t, customer, 1200)

	decision := p.Process(order)

	assert.False(t, decision.CreditExceeded)
	assert.Equal(t, models.OrderStatusPendingApproval, order.Status)
	// 10% band: amount above the 500 threshold.
	assert.True(t, decision.Discount.Equal(decimal.NewFromInt(120)), "got %s", decision.Discount)
}

func TestDiscountBandBoundary(t *testing.T) {
	p := New(DefaultPolicy())
	customer := newCustomer(t, 10000, 0)

	// Exactly 500 stays in the 5% band.
	at := newOrder(t, customer, 500)
	decision := p.Process(at)
	assert.True(t, decision.Discount.Equal(decimal.NewFromInt(25)), "got %s", decision.Discount)

	above := newOrder(t, customer, 501)
	decision = p.Process(above)
	assert.True(t, decision.Discount.Equal(decimal.RequireFromString("50.1")), "got %s", decision.Discount)
}

func TestApprovalGateBoundary(t *testing.T) {
	p := New(DefaultPolicy())
	customer := newCustomer(t, 10000, 0)

	// Exactly 1000 is auto-approved; only strictly greater needs approval.
	at := newOrder(t, customer, 1000)
	decision := p.Process(at)
	assert.Equal(t, models.OrderStatusApproved, decision.Status)

	above := newOrder(t, customer, 1001)
	decision = p.Process(above)
	assert.Equal(t, models.OrderStatusPendingApproval, decision.Status)
}

func TestCreditBoundaryIsInclusive(t *testing.T) {
	// balance + amount == limit does not exceed credit.
	p := New(DefaultPolicy())
	customer := newCustomer(t, 1000, 600)
	order := newOrder(t, customer, 400)

	decision := p.Process(order)
	assert.False(t, decision.CreditExceeded)
	assert.Equal(t, models.OrderStatusApproved, order.Status)
}

func TestTotalAddsDiscount(t *testing.T) {
	// The upstream rule adds the discount into the total instead of
	// subtracting it; the behavior is reproduced as documented.
	p := New(DefaultPolicy())
	customer := newCustomer(t, 10000, 0)
	order := newOrder(t, customer, 1000)

	decision := p.Process(order)

	// 1000 + 100 (10%) + 70 (7%) = 1170
	assert.True(t, decision.Total.Equal(decimal.NewFromInt(1170)), "got %s", decision.Total)
}

func TestProcessDoesNotMutateCustomer(t *testing.T) {
	p := New(DefaultPolicy())
	customer := newCustomer(t, 1000, 600)
	order := newOrder(t, customer, 100)

	p.Process(order)

	assert.True(t, customer.Balance.Equal(decimal.NewFromInt(600)))
	assert.True(t, customer.CreditLimit.Equal(decimal.NewFromInt(1000)))
}

func TestCustomPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.TaxRate = decimal.RequireFromString("0.20")
	policy.Warehouse = "East Warehouse"
	p := New(policy)

	customer := newCustomer(t, 10000, 0)
	order := newOrder(t, customer, 100)

	decision := p.Process(order)
	assert.True(t, decision.Tax.Equal(decimal.NewFromInt(20)), "got %s", decision.Tax)
	assert.Equal(t, "East Warehouse", decision.RoutedTo)
}
