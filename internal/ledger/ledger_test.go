package ledger

import (
	"testing"
	"time"

	"allocation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func order(t *testing.T, class models.CustomerClass, qty int, day string) models.AllocationOrder {
	t.Helper()
	o, err := models.NewAllocationOrder(class, qty, date(day))
	require.NoError(t, err)
	return o
}

func TestNewRejectsNegativeValues(t *testing.T) {
	_, err := New("ketchup", -1, 20)
	assert.Error(t, err)

	_, err = New("ketchup", 50, -1)
	assert.Error(t, err)
}

func TestAllocateRanksVIPBeforeRegularThenByDate(t *testing.T) {
	// Scenario B: registration order differs from allocation order.
	l, err := New("ketchup", 40, 20)
	require.NoError(t, err)

	l.RegisterOrder(order(t, models.ClassVIP, 4, "2025-04-03"))
	l.RegisterOrder(order(t, models.ClassRegular, 3, "2025-04-02"))
	l.RegisterOrder(order(t, models.ClassVIP, 5, "2025-04-01"))

	outcomes := l.Allocate()
	require.Len(t, outcomes, 3)

	assert.Equal(t, models.ClassVIP, outcomes[0].Order.CustomerClass)
	assert.Equal(t, date("2025-04-01"), outcomes[0].Order.OrderDate)
	assert.Equal(t, models.ClassVIP, outcomes[1].Order.CustomerClass)
	assert.Equal(t, date("2025-04-03"), outcomes[1].Order.OrderDate)
	assert.Equal(t, models.ClassRegular, outcomes[2].Order.CustomerClass)

	assert.True(t, outcomes[0].Allocated)
	assert.Equal(t, 35, outcomes[0].RemainingStock)
	assert.True(t, outcomes[1].Allocated)
	assert.Equal(t, 31, outcomes[1].RemainingStock)
	assert.True(t, outcomes[2].Allocated)
	assert.Equal(t, 28, outcomes[2].RemainingStock)

	assert.Equal(t, 28, l.StockLevel())
}

func TestAllocateIsStableForEqualClassAndDate(t *testing.T) {
	l, err := New("ketchup", 100, 0)
	require.NoError(t, err)

	// Same class, same date; quantities distinguish registration order.
	for _, qty := range []int{1, 2, 3, 4} {
		l.RegisterOrder(order(t, models.ClassRegular, qty, "2025-04-01"))
	}

	outcomes := l.Allocate()
	require.Len(t, outcomes, 4)
	for i, qty := range []int{1, 2, 3, 4} {
		assert.Equal(t, qty, outcomes[i].Order.Quantity)
	}
}

func TestAllocateRejectionDoesNotBlockLaterOrders(t *testing.T) {
	l, err := New("ketchup", 10, 0)
	require.NoError(t, err)

	// Earlier-ranked VIP order is too large; the later Regular order
	// still gets the untouched stock.
	l.RegisterOrder(order(t, models.ClassVIP, 15, "2025-04-01"))
	l.RegisterOrder(order(t, models.ClassRegular, 8, "2025-04-02"))

	outcomes := l.Allocate()
	require.Len(t, outcomes, 2)

	assert.False(t, outcomes[0].Allocated)
	assert.Equal(t, 15, outcomes[0].Shortfall)
	assert.Equal(t, 10, outcomes[0].AvailableStock)

	assert.True(t, outcomes[1].Allocated)
	assert.Equal(t, 2, outcomes[1].RemainingStock)

	assert.Equal(t, 2, l.StockLevel())
}

func TestAllocateNeverDrivesStockNegative(t *testing.T) {
	l, err := New("ketchup", 5, 0)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		l.RegisterOrder(order(t, models.ClassRegular, 3, "2025-04-01"))
	}

	l.Allocate()
	assert.GreaterOrEqual(t, l.StockLevel(), 0)
}

func TestAllocateLeavesPendingSetIntact(t *testing.T) {
	l, err := New("ketchup", 10, 0)
	require.NoError(t, err)

	l.RegisterOrder(order(t, models.ClassRegular, 3, "2025-04-01"))
	l.Allocate()

	// A second pass re-processes the same set against remaining stock.
	outcomes := l.Allocate()
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Allocated)
	assert.Equal(t, 4, l.StockLevel())

	l.ClearPending()
	assert.Empty(t, l.Allocate())
}

func TestCheckReorder(t *testing.T) {
	l, err := New("ketchup", 50, 20)
	require.NoError(t, err)

	status := l.CheckReorder()
	assert.True(t, status.Sufficient)
	assert.Equal(t, 50, status.StockLevel)

	_, err = l.RecordSale(31)
	require.NoError(t, err)

	status = l.CheckReorder()
	assert.False(t, status.Sufficient)
	assert.Equal(t, 19, status.StockLevel)
}

func TestCheckReorderAtExactReorderPointIsSufficient(t *testing.T) {
	l, err := New("ketchup", 20, 20)
	require.NoError(t, err)

	assert.True(t, l.CheckReorder().Sufficient)
}

func TestBufferStock(t *testing.T) {
	tests := []struct {
		name         string
		stockLevel   int
		reorderPoint int
		want         int
	}{
		{"below reorder point", 10, 20, 20},
		{"at reorder point", 20, 20, 0},
		{"above reorder point", 50, 20, -60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New("ketchup", tt.stockLevel, tt.reorderPoint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.BufferStock())
		})
	}
}

func TestRecordSale(t *testing.T) {
	// Scenario A: stock 50, reorder 20, sell 10.
	l, err := New("ketchup", 50, 20)
	require.NoError(t, err)

	result, err := l.RecordSale(10)
	require.NoError(t, err)

	assert.Equal(t, 40, result.RemainingStock)
	assert.True(t, result.Reorder.Sufficient)
	assert.Equal(t, []int{10}, l.SalesHistory())
	assert.Equal(t, 40, l.StockLevel())
}

func TestRecordSaleInsufficientStockMutatesNothing(t *testing.T) {
	l, err := New("ketchup", 5, 2)
	require.NoError(t, err)

	_, err = l.RecordSale(6)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, l.StockLevel())
	assert.Empty(t, l.SalesHistory())
}

func TestRecordSaleRejectsNegativeQuantity(t *testing.T) {
	l, err := New("ketchup", 5, 2)
	require.NoError(t, err)

	_, err = l.RecordSale(-1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientStock)
}

func TestReplenishmentOrderEmptyHistoryDefaultsToOne(t *testing.T) {
	// avg defaults to 1, so the raw quantity is the lead time; the
	// reorder point wins when it is larger.
	l, err := New("ketchup", 50, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, l.ReplenishmentOrder())

	l2, err := New("ketchup", 50, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, l2.ReplenishmentOrder())
}

func TestReplenishmentOrderAveragesSalesHistory(t *testing.T) {
	l, err := New("ketchup", 100, 5)
	require.NoError(t, err)

	for _, q := range []int{10, 20} {
		_, err := l.RecordSale(q)
		require.NoError(t, err)
	}

	// avg 15 * 7 days = 105
	assert.Equal(t, 105, l.ReplenishmentOrder())
}

func TestReplenishmentOrderFloorsFractionalAverage(t *testing.T) {
	l, err := New("ketchup", 100, 1)
	require.NoError(t, err)

	for _, q := range []int{1, 2} {
		_, err := l.RecordSale(q)
		require.NoError(t, err)
	}

	// avg 1.5 * 7 = 10.5, floored to 10
	assert.Equal(t, 10, l.ReplenishmentOrder())
}

func TestReplenishmentOrderHonorsCustomLeadTime(t *testing.T) {
	l, err := NewWithLeadTime("ketchup", 100, 1, 14)
	require.NoError(t, err)

	_, err = l.RecordSale(2)
	require.NoError(t, err)

	assert.Equal(t, 28, l.ReplenishmentOrder())
}

func TestBatchesKeepInsertionOrder(t *testing.T) {
	l, err := New("ketchup", 50, 20)
	require.NoError(t, err)

	// B003 expires before B002; insertion order must still win.
	_, err = l.AddBatch("B002", 30, date("2026-01-01"))
	require.NoError(t, err)
	_, err = l.AddBatch("B003", 20, date("2025-06-30"))
	require.NoError(t, err)

	batches := l.ListBatches()
	require.Len(t, batches, 2)
	assert.Equal(t, "B002", batches[0].BatchNumber)
	assert.Equal(t, "B003", batches[1].BatchNumber)

	report := l.Valuation()
	assert.Equal(t, "ketchup", report.ProductName)
	assert.Equal(t, batches, report.Batches)
}

func TestDuplicateBatchNumbersAreTolerated(t *testing.T) {
	l, err := New("ketchup", 50, 20)
	require.NoError(t, err)

	_, err = l.AddBatch("B001", 10, date("2025-12-31"))
	require.NoError(t, err)
	_, err = l.AddBatch("B001", 5, date("2026-06-30"))
	require.NoError(t, err)

	assert.Len(t, l.ListBatches(), 2)
}

func TestBatchesAreIndependentOfStockLevel(t *testing.T) {
	l, err := New("ketchup", 50, 20)
	require.NoError(t, err)

	_, err = l.AddBatch("B001", 999, date("2025-12-31"))
	require.NoError(t, err)

	assert.Equal(t, 50, l.StockLevel())
}

func TestPureQueriesAreIdempotent(t *testing.T) {
	l, err := New("ketchup", 10, 20)
	require.NoError(t, err)
	_, err = l.AddBatch("B001", 10, date("2025-12-31"))
	require.NoError(t, err)

	assert.Equal(t, l.CheckReorder(), l.CheckReorder())
	assert.Equal(t, l.BufferStock(), l.BufferStock())
	assert.Equal(t, l.Valuation(), l.Valuation())
	assert.Equal(t, l.ListBatches(), l.ListBatches())
	assert.Equal(t, l.ReplenishmentOrder(), l.ReplenishmentOrder())
}
