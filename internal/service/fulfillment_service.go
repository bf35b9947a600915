package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"allocation-service/internal/broker"
	"allocation-service/internal/models"
	"allocation-service/internal/processor"
	"allocation-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrCustomerExists   = errors.New("customer already exists")
)

// DecisionPublisher publishes fulfillment decision events
type DecisionPublisher interface {
	PublishOrderDecision(ctx context.Context, event *models.OrderDecisionEvent) error
}

var _ DecisionPublisher = (*broker.EventPublisher)(nil)

// FulfillmentService evaluates single orders against registered
// customers and publishes one decision event per processed order
type FulfillmentService struct {
	mu        sync.Mutex
	customers map[string]*models.Customer
	processor *processor.OrderProcessor
	publisher DecisionPublisher
	logger    *zap.Logger
}

// NewFulfillmentService creates a new fulfillment service
func NewFulfillmentService(policy processor.Policy, publisher DecisionPublisher) *FulfillmentService {
	return &FulfillmentService{
		customers: make(map[string]*models.Customer),
		processor: processor.New(policy),
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// CreateCustomer registers a customer
func (s *FulfillmentService) CreateCustomer(ctx context.Context, name string, creditLimit, balance decimal.Decimal) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrCustomerExists, name)
	}

	customer, err := models.NewCustomer(name, creditLimit, balance)
	if err != nil {
		return nil, err
	}
	s.customers[name] = customer

	s.logger.Info("Customer created",
		zap.String("customer", name),
		zap.String("credit_limit", creditLimit.String()),
		zap.String("balance", balance.String()))
	return customer, nil
}

// GetCustomer returns a registered customer
func (s *FulfillmentService) GetCustomer(ctx context.Context, name string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.customers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, name)
	}
	return customer, nil
}

// ProcessOrder builds an order for the named customer, runs the one-shot
// decision sequence and publishes the outcome. A credit-exceeded order
// stays PENDING; re-processing after a credit adjustment is up to the
// caller.
func (s *FulfillmentService) ProcessOrder(ctx context.Context, customerName string, amount decimal.Decimal) (processor.Decision, *models.FulfillmentOrder, error) {
	ctx, span := util.StartSpan(ctx, "FulfillmentService.ProcessOrder")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.customers[customerName]
	if !ok {
		return processor.Decision{}, nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerName)
	}

	order, err := models.NewFulfillmentOrder(customer, amount)
	if err != nil {
		return processor.Decision{}, nil, err
	}

	decision := s.processor.Process(order)

	event := &models.OrderDecisionEvent{
		CustomerName: customerName,
		Amount:       amount,
		Status:       order.Status,
	}

	switch {
	case decision.CreditExceeded:
		event.BaseEvent = newBaseEvent(models.EventTypeCreditExceeded)
		util.OrderDecisionsTotal.WithLabelValues("credit_exceeded").Inc()
		s.logger.Warn("Credit limit exceeded",
			zap.String("customer", customerName),
			zap.String("amount", amount.String()),
			zap.String("balance", customer.Balance.String()),
			zap.String("credit_limit", customer.CreditLimit.String()))

	case order.Status == models.OrderStatusPendingApproval:
		event.BaseEvent = newBaseEvent(models.EventTypeOrderPendingApproval)
		event.Discount = decision.Discount
		event.Tax = decision.Tax
		event.Total = decision.Total
		event.RoutedTo = decision.RoutedTo
		util.OrderDecisionsTotal.WithLabelValues("pending_approval").Inc()
		s.logger.Info("Order sent for approval",
			zap.String("customer", customerName),
			zap.String("amount", amount.String()),
			zap.String("total", decision.Total.String()))

	default:
		event.BaseEvent = newBaseEvent(models.EventTypeOrderApproved)
		event.Discount = decision.Discount
		event.Tax = decision.Tax
		event.Total = decision.Total
		event.RoutedTo = decision.RoutedTo
		util.OrderDecisionsTotal.WithLabelValues("approved").Inc()
		s.logger.Info("Order approved",
			zap.String("customer", customerName),
			zap.String("amount", amount.String()),
			zap.String("discount", decision.Discount.String()),
			zap.String("tax", decision.Tax.String()),
			zap.String("routed_to", decision.RoutedTo),
			zap.String("total", decision.Total.String()))
	}

	if err := s.publisher.PublishOrderDecision(ctx, event); err != nil {
		s.logger.Error("Failed to publish order decision event", zap.Error(err))
	}

	return decision, order, nil
}
