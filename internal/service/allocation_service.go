package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"allocation-service/internal/broker"
	"allocation-service/internal/ledger"
	"allocation-service/internal/models"
	"allocation-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service-level errors
var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductExists   = errors.New("product already exists")
)

// EventPublisher is the slice of broker.EventPublisher the allocation
// service needs. Tests substitute a recording fake.
type EventPublisher interface {
	PublishAllocation(ctx context.Context, event *models.AllocationEvent) error
	PublishSale(ctx context.Context, event *models.SaleEvent) error
	PublishReorder(ctx context.Context, event *models.ReorderEvent) error
	PublishBatchAdded(ctx context.Context, event *models.BatchAddedEvent) error
	PublishReplenishment(ctx context.Context, event *models.ReplenishmentEvent) error
}

var _ EventPublisher = (*broker.EventPublisher)(nil)

// AllocationService owns the per-product stock ledgers and publishes one
// event per ledger decision, in decision order. Ledgers themselves are
// single-threaded; the mutex guards only the service edge where HTTP
// handlers come in concurrently.
type AllocationService struct {
	mu             sync.Mutex
	ledgers        map[string]*ledger.StockLedger
	eventPublisher EventPublisher
	leadTimeDays   int
	logger         *zap.Logger
}

// NewAllocationService creates a new allocation service; leadTimeDays
// is applied to every product ledger it creates
func NewAllocationService(eventPublisher EventPublisher, leadTimeDays int) *AllocationService {
	return &AllocationService{
		ledgers:        make(map[string]*ledger.StockLedger),
		eventPublisher: eventPublisher,
		leadTimeDays:   leadTimeDays,
		logger:         util.GetLogger(),
	}
}

// CreateProduct registers a new product ledger
func (s *AllocationService) CreateProduct(ctx context.Context, name string, stockLevel, reorderPoint int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ledgers[name]; ok {
		return fmt.Errorf("%w: %s", ErrProductExists, name)
	}

	l, err := ledger.NewWithLeadTime(name, stockLevel, reorderPoint, s.leadTimeDays)
	if err != nil {
		return err
	}
	s.ledgers[name] = l

	s.logger.Info("Product created",
		zap.String("product", name),
		zap.Int("stock_level", stockLevel),
		zap.Int("reorder_point", reorderPoint))
	return nil
}

func (s *AllocationService) ledgerFor(name string) (*ledger.StockLedger, error) {
	l, ok := s.ledgers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, name)
	}
	return l, nil
}

// RegisterOrder appends an allocation order to a product's pending set
func (s *AllocationService) RegisterOrder(ctx context.Context, product string, order models.AllocationOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(product)
	if err != nil {
		return err
	}

	l.RegisterOrder(order)
	s.logger.Info("Order registered",
		zap.String("product", product),
		zap.String("customer_class", string(order.CustomerClass)),
		zap.Int("quantity", order.Quantity),
		zap.Time("order_date", order.OrderDate))
	return nil
}

// Allocate runs a full allocation pass over a product's pending orders
// and publishes one event per outcome, in processed order. The pending
// set is left intact; callers that do not want re-processing on the next
// pass must call ClearPending.
func (s *AllocationService) Allocate(ctx context.Context, product string) ([]ledger.AllocationOutcome, error) {
	ctx, span := util.StartSpan(ctx, "AllocationService.Allocate")
	defer span.End()

	start := time.Now()
	defer func() {
		util.AllocationPassLatency.Observe(time.Since(start).Seconds())
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(product)
	if err != nil {
		return nil, err
	}

	outcomes := l.Allocate()

	for _, outcome := range outcomes {
		event := &models.AllocationEvent{
			ProductName:   product,
			CustomerClass: outcome.Order.CustomerClass,
			OrderDate:     outcome.Order.OrderDate,
			Quantity:      outcome.Order.Quantity,
		}

		if outcome.Allocated {
			event.BaseEvent = newBaseEvent(models.EventTypeStockAllocated)
			event.RemainingStock = outcome.RemainingStock
			util.AllocationsTotal.WithLabelValues("allocated", string(outcome.Order.CustomerClass)).Inc()
			s.logger.Info("Stock allocated",
				zap.String("product", product),
				zap.String("customer_class", string(outcome.Order.CustomerClass)),
				zap.Int("quantity", outcome.Order.Quantity),
				zap.Int("remaining_stock", outcome.RemainingStock))
		} else {
			event.BaseEvent = newBaseEvent(models.EventTypeAllocationRejected)
			event.AvailableStock = outcome.AvailableStock
			event.Shortfall = outcome.Shortfall
			util.AllocationsTotal.WithLabelValues("rejected", string(outcome.Order.CustomerClass)).Inc()
			s.logger.Warn("Allocation rejected",
				zap.String("product", product),
				zap.String("customer_class", string(outcome.Order.CustomerClass)),
				zap.Int("quantity", outcome.Order.Quantity),
				zap.Int("available_stock", outcome.AvailableStock))
		}

		if err := s.eventPublisher.PublishAllocation(ctx, event); err != nil {
			s.logger.Error("Failed to publish allocation event", zap.Error(err))
		}
	}

	return outcomes, nil
}

// ClearPending empties a product's pending allocation set
func (s *AllocationService) ClearPending(ctx context.Context, product string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(product)
	if err != nil {
		return err
	}
	l.ClearPending()
	return nil
}

// PendingOrders returns a product's pending orders in registration order
func (s *AllocationService) PendingOrders(ctx context.Context, product string) ([]models.AllocationOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(product)
	if err != nil {
		return nil, err
	}
	return l.PendingOrders(), nil
}

// RecordSale records a sale, then publishes the sale outcome followed by
// the reorder signal the ledger evaluated as its side effect
func (s *AllocationService) RecordSale(ctx context.Context, product string, quantity int) (ledger.SaleResult, error) {
	ctx, span := util.StartSpan(ctx, "AllocationService.RecordSale")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(product)
	if err != nil {
		return ledger.SaleResult{}, err
	}

	result, err := l.RecordSale(quantity)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientStock) {
			util.SalesRejectedTotal.Inc()
			s.logger.Warn("Sale rejected",
				zap.String("product", product),
				zap.Int("quantity", quantity),
				zap.Int("stock_level", l.StockLevel()))

			event := &models.SaleEvent{
				BaseEvent:      newBaseEvent(models.EventTypeSaleRejected),
				ProductName:    product,
				Quantity:       quantity,
				RemainingStock: l.StockLevel(),
				Reason:         "insufficient_stock",
			}
			if pubErr := s.eventPublisher.PublishSale(ctx, event); pubErr != nil {
				s.logger.Error("Failed to publish sale event", zap.Error(pubErr))
			}
		}
		return ledger.SaleResult{}, err
	}

	util.SalesRecordedTotal.Inc()
	s.logger.Info("Sale recorded",
		zap.String("product", product),
		zap.Int("quantity", quantity),
		zap.Int("remaining_stock", result.RemainingStock))

	saleEvent := &models.SaleEvent{
		BaseEvent:      newBaseEvent(models.EventTypeSaleRecorded),
		ProductName:    product,
		Quantity:       quantity,
		RemainingStock: result.RemainingStock,
	}
	if err := s.eventPublisher.PublishSale(ctx, saleEvent); err != nil {
		s.logger.Error("Failed to publish sale event", zap.Error(err))
	}

	s.publishReorder(ctx, result.Reorder)

	return result, nil
}

// ReorderStatus runs the pure reorder query and publishes the signal
func (s *AllocationService) ReorderStatus(ctx context.Context, product string) (ledger.ReorderStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(product)
	if err != nil {
		return ledger.ReorderStatus{}, err
	}

	status := l.CheckReorder()
	s.publishReorder(ctx, status)
	return status, nil
}

func (s *AllocationService) publishReorder(ctx context.Context, status ledger.ReorderStatus) {
	eventType := models.EventTypeStockSufficient
	if !status.Sufficient {
		eventType = models.EventTypeReorderAlert
		util.ReorderAlertsTotal.Inc()
		s.logger.Warn("Stock below reorder point",
			zap.String("product", status.ProductName),
			zap.Int("stock_level", status.StockLevel),
			zap.Int("reorder_point", status.ReorderPoint))
	}

	event := &models.ReorderEvent{
		BaseEvent:    newBaseEvent(eventType),
		ProductName:  status.ProductName,
		StockLevel:   status.StockLevel,
		ReorderPoint: status.ReorderPoint,
	}
	if err := s.eventPublisher.PublishReorder(ctx, event); err != nil {
		s.logger.Error("Failed to publish reorder event", zap.Error(err))
	}
}

// BufferStock computes the buffer quantity for a product. A zero or
// negative value means no buffer is needed.
func (s *AllocationService) BufferStock(ctx context.Context, product string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(product)
	if err != nil {
		return 0, err
	}

	buffer := l.BufferStock()
	s.logger.Info("Buffer stock computed",
		zap.String("product", product),
		zap.Int("buffer_quantity", buffer))
	return buffer, nil
}

// Replenishment sizes a replenishment order and publishes the suggestion
func (s *AllocationService) Replenishment(ctx context.Context, product string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(product)
	if err != nil {
		return 0, err
	}

	quantity := l.ReplenishmentOrder()
	s.logger.Info("Replenishment order suggested",
		zap.String("product", product),
		zap.Int("quantity", quantity))

	event := &models.ReplenishmentEvent{
		BaseEvent:   newBaseEvent(models.EventTypeReplenishmentSuggested),
		ProductName: product,
		Quantity:    quantity,
	}
	if err := s.eventPublisher.PublishReplenishment(ctx, event); err != nil {
		s.logger.Error("Failed to publish replenishment event", zap.Error(err))
	}

	return quantity, nil
}

// AddBatch appends a batch to a product's ledger and publishes the event
func (s *AllocationService) AddBatch(ctx context.Context, product, batchNumber string, quantity int, expiryDate time.Time) (models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(product)
	if err != nil {
		return models.Batch{}, err
	}

	batch, err := l.AddBatch(batchNumber, quantity, expiryDate)
	if err != nil {
		return models.Batch{}, err
	}

	util.BatchesAddedTotal.Inc()
	s.logger.Info("Batch added",
		zap.String("product", product),
		zap.String("batch_number", batchNumber),
		zap.Int("quantity", quantity),
		zap.Time("expiry_date", expiryDate))

	event := &models.BatchAddedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeBatchAdded),
		ProductName: product,
		BatchNumber: batch.BatchNumber,
		Quantity:    batch.Quantity,
		ExpiryDate:  batch.ExpiryDate,
	}
	if err := s.eventPublisher.PublishBatchAdded(ctx, event); err != nil {
		s.logger.Error("Failed to publish batch event", zap.Error(err))
	}

	return batch, nil
}

// Valuation returns a product's FIFO valuation report
func (s *AllocationService) Valuation(ctx context.Context, product string) (ledger.ValuationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(product)
	if err != nil {
		return ledger.ValuationReport{}, err
	}
	return l.Valuation(), nil
}

// ListBatches returns a product's batches in insertion order
func (s *AllocationService) ListBatches(ctx context.Context, product string) ([]models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(product)
	if err != nil {
		return nil, err
	}
	return l.ListBatches(), nil
}

// StockLevel returns a product's current stock count
func (s *AllocationService) StockLevel(ctx context.Context, product string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledgerFor(product)
	if err != nil {
		return 0, err
	}
	return l.StockLevel(), nil
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
