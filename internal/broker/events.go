package broker

import (
	"context"
	"fmt"

	"allocation-service/internal/models"
)

// EventPublisher handles publishing decision events. Every decision
// point produces exactly one event, published in decision order.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishAllocation publishes a STOCK_ALLOCATED or ALLOCATION_REJECTED event
func (ep *EventPublisher) PublishAllocation(ctx context.Context, event *models.AllocationEvent) error {
	key := fmt.Sprintf("product-%s", event.ProductName)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishSale publishes a SALE_RECORDED or SALE_REJECTED event
func (ep *EventPublisher) PublishSale(ctx context.Context, event *models.SaleEvent) error {
	key := fmt.Sprintf("product-%s", event.ProductName)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishReorder publishes a REORDER_ALERT or STOCK_SUFFICIENT event
func (ep *EventPublisher) PublishReorder(ctx context.Context, event *models.ReorderEvent) error {
	key := fmt.Sprintf("product-%s", event.ProductName)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishBatchAdded publishes a BATCH_ADDED event
func (ep *EventPublisher) PublishBatchAdded(ctx context.Context, event *models.BatchAddedEvent) error {
	key := fmt.Sprintf("product-%s", event.ProductName)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishReplenishment publishes a REPLENISHMENT_SUGGESTED event
func (ep *EventPublisher) PublishReplenishment(ctx context.Context, event *models.ReplenishmentEvent) error {
	key := fmt.Sprintf("product-%s", event.ProductName)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishOrderDecision publishes an ORDER_APPROVED, ORDER_PENDING_APPROVAL
// or CREDIT_EXCEEDED event
func (ep *EventPublisher) PublishOrderDecision(ctx context.Context, event *models.OrderDecisionEvent) error {
	key := fmt.Sprintf("customer-%s", event.CustomerName)
	return ep.producer.PublishEvent(ctx, key, event)
}
