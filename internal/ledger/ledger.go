package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"allocation-service/internal/models"
)

// ErrInsufficientStock is returned by RecordSale when the requested
// quantity exceeds the current stock level. Nothing is mutated.
var ErrInsufficientStock = errors.New("insufficient stock")

// DefaultLeadTimeDays is the replenishment lead time used when sizing
// a replenishment order, unless overridden at construction.
const DefaultLeadTimeDays = 7

// StockLedger owns a single product's stock count, reorder threshold,
// sales history, pending allocation orders and dated batches. It is a
// plain in-memory aggregate with guarded mutators; callers that share a
// ledger across goroutines must synchronize externally.
type StockLedger struct {
	productName  string
	stockLevel   int
	reorderPoint int
	leadTimeDays int
	salesHistory []int
	pending      []models.AllocationOrder
	batches      []models.Batch
}

// New creates a ledger for one product with the default lead time
func New(productName string, stockLevel, reorderPoint int) (*StockLedger, error) {
	return NewWithLeadTime(productName, stockLevel, reorderPoint, DefaultLeadTimeDays)
}

// NewWithLeadTime creates a ledger with an explicit replenishment lead
// time; non-positive values fall back to the default
func NewWithLeadTime(productName string, stockLevel, reorderPoint, leadTimeDays int) (*StockLedger, error) {
	if stockLevel < 0 {
		return nil, fmt.Errorf("stock level must be non-negative, got %d", stockLevel)
	}
	if reorderPoint < 0 {
		return nil, fmt.Errorf("reorder point must be non-negative, got %d", reorderPoint)
	}
	if leadTimeDays <= 0 {
		leadTimeDays = DefaultLeadTimeDays
	}
	return &StockLedger{
		productName:  productName,
		stockLevel:   stockLevel,
		reorderPoint: reorderPoint,
		leadTimeDays: leadTimeDays,
	}, nil
}

// ProductName returns the product this ledger tracks
func (l *StockLedger) ProductName() string { return l.productName }

// StockLevel returns the current stock count
func (l *StockLedger) StockLevel() int { return l.stockLevel }

// ReorderPoint returns the configured reorder threshold
func (l *StockLedger) ReorderPoint() int { return l.reorderPoint }

// PendingOrders returns a copy of the pending allocation set in
// registration order
func (l *StockLedger) PendingOrders() []models.AllocationOrder {
	out := make([]models.AllocationOrder, len(l.pending))
	copy(out, l.pending)
	return out
}

// RegisterOrder appends an order to the pending set. No stock is touched
// until Allocate runs.
func (l *StockLedger) RegisterOrder(order models.AllocationOrder) {
	l.pending = append(l.pending, order)
}

// ClearPending empties the pending set. Allocate never clears it, so a
// caller that restocks and re-allocates must decide whether already
// processed orders should run again.
func (l *StockLedger) ClearPending() {
	l.pending = nil
}

// AllocationOutcome records the result of evaluating one order during an
// allocation pass. Exactly one of the two branches is populated: an
// allocated order carries RemainingStock, a rejected one carries
// Shortfall and AvailableStock.
type AllocationOutcome struct {
	Order          models.AllocationOrder
	Allocated      bool
	RemainingStock int
	Shortfall      int
	AvailableStock int
}

// Allocate evaluates every pending order in a single forward pass.
//
// Orders are ranked by customer class (VIP before Regular), then by
// ascending order date; orders equal on both keys keep registration
// order. The stable ranking is a correctness requirement: it makes
// allocation outcomes reproducible and auditable.
//
// Each order is checked independently against the stock remaining at its
// turn, so a rejected large order does not block a smaller one ranked
// after it. Stock is decremented only when sufficient; the level never
// goes negative. The pending set survives the call.
func (l *StockLedger) Allocate() []AllocationOutcome {
	ranked := make([]models.AllocationOrder, len(l.pending))
	copy(ranked, l.pending)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CustomerClass.Rank() != ranked[j].CustomerClass.Rank() {
			return ranked[i].CustomerClass.Rank() < ranked[j].CustomerClass.Rank()
		}
		return ranked[i].OrderDate.Before(ranked[j].OrderDate)
	})

	outcomes := make([]AllocationOutcome, 0, len(ranked))
	for _, order := range ranked {
		if l.stockLevel >= order.Quantity {
			l.stockLevel -= order.Quantity
			outcomes = append(outcomes, AllocationOutcome{
				Order:          order,
				Allocated:      true,
				RemainingStock: l.stockLevel,
			})
		} else {
			outcomes = append(outcomes, AllocationOutcome{
				Order:          order,
				Shortfall:      order.Quantity,
				AvailableStock: l.stockLevel,
			})
		}
	}
	return outcomes
}

// ReorderStatus reports whether the stock level has fallen below the
// reorder point
type ReorderStatus struct {
	ProductName  string
	StockLevel   int
	ReorderPoint int
	Sufficient   bool
}

// CheckReorder is a pure query: sufficient when stockLevel >= reorderPoint
func (l *StockLedger) CheckReorder() ReorderStatus {
	return ReorderStatus{
		ProductName:  l.productName,
		StockLevel:   l.stockLevel,
		ReorderPoint: l.reorderPoint,
		Sufficient:   l.stockLevel >= l.reorderPoint,
	}
}

// BufferStock computes (reorderPoint - stockLevel) * 2. A zero or
// negative result is valid and means no buffer is needed.
func (l *StockLedger) BufferStock() int {
	return (l.reorderPoint - l.stockLevel) * 2
}

// SaleResult carries the outcome of a recorded sale together with the
// reorder signal evaluated immediately after the decrement
type SaleResult struct {
	Quantity       int
	RemainingStock int
	Reorder        ReorderStatus
}

// RecordSale appends the quantity to the sales history and decrements
// stock, then evaluates the reorder check as a side-effect signal.
// A quantity above the stock level fails with ErrInsufficientStock and
// mutates nothing.
func (l *StockLedger) RecordSale(quantity int) (SaleResult, error) {
	if quantity < 0 {
		return SaleResult{}, fmt.Errorf("sale quantity must be non-negative, got %d", quantity)
	}
	if quantity > l.stockLevel {
		return SaleResult{}, fmt.Errorf("%w: requested %d, available %d",
			ErrInsufficientStock, quantity, l.stockLevel)
	}

	l.salesHistory = append(l.salesHistory, quantity)
	l.stockLevel -= quantity

	return SaleResult{
		Quantity:       quantity,
		RemainingStock: l.stockLevel,
		Reorder:        l.CheckReorder(),
	}, nil
}

// SalesHistory returns a copy of the recorded sale quantities in order
func (l *StockLedger) SalesHistory() []int {
	out := make([]int, len(l.salesHistory))
	copy(out, l.salesHistory)
	return out
}

// ReplenishmentOrder sizes a replenishment purchase from average daily
// sales over the fixed lead time, floored, and never below the reorder
// point. An empty sales history defaults the average to 1 so the
// recommendation is never zero.
func (l *StockLedger) ReplenishmentOrder() int {
	avg := 1.0
	if len(l.salesHistory) > 0 {
		sum := 0
		for _, q := range l.salesHistory {
			sum += q
		}
		avg = float64(sum) / float64(len(l.salesHistory))
	}

	quantity := int(avg * float64(l.leadTimeDays))
	if quantity < l.reorderPoint {
		quantity = l.reorderPoint
	}
	return quantity
}

// AddBatch appends a dated lot. Batches are tracked independently of the
// aggregate stock level and batch numbers are not deduplicated: the
// batch list is an append-only slice, not a keyed map.
func (l *StockLedger) AddBatch(batchNumber string, quantity int, expiryDate time.Time) (models.Batch, error) {
	if quantity < 0 {
		return models.Batch{}, fmt.Errorf("batch quantity must be non-negative, got %d", quantity)
	}
	batch := models.Batch{
		BatchNumber: batchNumber,
		Quantity:    quantity,
		ExpiryDate:  expiryDate,
	}
	l.batches = append(l.batches, batch)
	return batch, nil
}

// ListBatches returns the batches in insertion order
func (l *StockLedger) ListBatches() []models.Batch {
	out := make([]models.Batch, len(l.batches))
	copy(out, l.batches)
	return out
}

// ValuationReport lists a product's batches for FIFO valuation.
// "FIFO" here is literal insertion order: the oldest-added batch is
// reported first and batches are never re-sorted by expiry date.
type ValuationReport struct {
	ProductName string
	Batches     []models.Batch
}

// Valuation produces a read-only FIFO valuation report
func (l *StockLedger) Valuation() ValuationReport {
	return ValuationReport{
		ProductName: l.productName,
		Batches:     l.ListBatches(),
	}
}
