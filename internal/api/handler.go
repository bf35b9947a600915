package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"allocation-service/internal/ledger"
	"allocation-service/internal/models"
	"allocation-service/internal/service"
	"allocation-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers
type Handler struct {
	allocation  *service.AllocationService
	fulfillment *service.FulfillmentService
}

// NewHandler creates a new HTTP handler
func NewHandler(allocation *service.AllocationService, fulfillment *service.FulfillmentService) *Handler {
	return &Handler{
		allocation:  allocation,
		fulfillment: fulfillment,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/products", h.createProduct)
		v1.POST("/products/:name/orders", h.registerOrder)
		v1.POST("/products/:name/allocate", h.allocate)
		v1.DELETE("/products/:name/orders", h.clearPending)
		v1.POST("/products/:name/sales", h.recordSale)
		v1.POST("/products/:name/batches", h.addBatch)
		v1.GET("/products/:name/batches", h.listBatches)
		v1.GET("/products/:name/valuation", h.valuation)
		v1.GET("/products/:name/reorder", h.reorderStatus)
		v1.GET("/products/:name/buffer", h.bufferStock)
		v1.GET("/products/:name/replenishment", h.replenishment)

		v1.POST("/customers", h.createCustomer)
		v1.POST("/customers/:name/orders", h.processOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

type createProductRequest struct {
	Name         string `json:"name" binding:"required"`
	StockLevel   int    `json:"stock_level"`
	ReorderPoint int    `json:"reorder_point"`
}

// createProduct registers a new product ledger
func (h *Handler) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.allocation.CreateProduct(c.Request.Context(), req.Name, req.StockLevel, req.ReorderPoint); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrProductExists) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"product":       req.Name,
		"stock_level":   req.StockLevel,
		"reorder_point": req.ReorderPoint,
	})
}

type registerOrderRequest struct {
	CustomerClass string `json:"customer_class" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,min=1"`
	OrderDate     string `json:"order_date" binding:"required"`
}

// registerOrder appends an allocation order to a product's pending set
func (h *Handler) registerOrder(c *gin.Context) {
	var req registerOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	class, err := models.ParseCustomerClass(req.CustomerClass)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderDate, err := time.Parse("2006-01-02", req.OrderDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order_date, expected YYYY-MM-DD"})
		return
	}

	order, err := models.NewAllocationOrder(class, req.Quantity, orderDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.allocation.RegisterOrder(c.Request.Context(), c.Param("name"), order); err != nil {
		c.JSON(productErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, order)
}

type allocationOutcomeResponse struct {
	CustomerClass  string `json:"customer_class"`
	OrderDate      string `json:"order_date"`
	Quantity       int    `json:"quantity"`
	Outcome        string `json:"outcome"`
	RemainingStock int    `json:"remaining_stock,omitempty"`
	AvailableStock int    `json:"available_stock,omitempty"`
	Shortfall      int    `json:"shortfall,omitempty"`
}

// allocate runs an allocation pass and returns outcomes in processed order
func (h *Handler) allocate(c *gin.Context) {
	outcomes, err := h.allocation.Allocate(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(productErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	resp := make([]allocationOutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		r := allocationOutcomeResponse{
			CustomerClass: string(o.Order.CustomerClass),
			OrderDate:     o.Order.OrderDate.Format("2006-01-02"),
			Quantity:      o.Order.Quantity,
		}
		if o.Allocated {
			r.Outcome = "ALLOCATED"
			r.RemainingStock = o.RemainingStock
		} else {
			r.Outcome = "REJECTED"
			r.AvailableStock = o.AvailableStock
			r.Shortfall = o.Shortfall
		}
		resp = append(resp, r)
	}

	c.JSON(http.StatusOK, gin.H{"outcomes": resp})
}

// clearPending empties a product's pending allocation set
func (h *Handler) clearPending(c *gin.Context) {
	if err := h.allocation.ClearPending(c.Request.Context(), c.Param("name")); err != nil {
		c.JSON(productErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type recordSaleRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// recordSale records a sale against a product
func (h *Handler) recordSale(c *gin.Context) {
	var req recordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.allocation.RecordSale(c.Request.Context(), c.Param("name"), req.Quantity)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientStock) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(productErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quantity":        result.Quantity,
		"remaining_stock": result.RemainingStock,
		"reorder": gin.H{
			"sufficient":    result.Reorder.Sufficient,
			"stock_level":   result.Reorder.StockLevel,
			"reorder_point": result.Reorder.ReorderPoint,
		},
	})
}

type addBatchRequest struct {
	BatchNumber string `json:"batch_number" binding:"required"`
	Quantity    int    `json:"quantity" binding:"min=0"`
	ExpiryDate  string `json:"expiry_date" binding:"required"`
}

// addBatch appends a batch to a product's ledger
func (h *Handler) addBatch(c *gin.Context) {
	var req addBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expiry_date, expected YYYY-MM-DD"})
		return
	}

	batch, err := h.allocation.AddBatch(c.Request.Context(), c.Param("name"), req.BatchNumber, req.Quantity, expiry)
	if err != nil {
		c.JSON(productErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, batch)
}

// listBatches returns a product's batches in insertion order
func (h *Handler) listBatches(c *gin.Context) {
	batches, err := h.allocation.ListBatches(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(productErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

// valuation returns a product's FIFO valuation report
func (h *Handler) valuation(c *gin.Context) {
	report, err := h.allocation.Valuation(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(productErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product": report.ProductName,
		"method":  "FIFO",
		"batches": report.Batches,
	})
}

// reorderStatus returns whether a product's stock is below its reorder point
func (h *Handler) reorderStatus(c *gin.Context) {
	status, err := h.allocation.ReorderStatus(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(productErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product":       status.ProductName,
		"sufficient":    status.Sufficient,
		"stock_level":   status.StockLevel,
		"reorder_point": status.ReorderPoint,
	})
}

// bufferStock returns the computed buffer quantity for a product
func (h *Handler) bufferStock(c *gin.Context) {
	buffer, err := h.allocation.BufferStock(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(productErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product":         c.Param("name"),
		"buffer_quantity": buffer,
	})
}

// replenishment returns the suggested replenishment order quantity
func (h *Handler) replenishment(c *gin.Context) {
	quantity, err := h.allocation.Replenishment(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(productErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product":  c.Param("name"),
		"quantity": quantity,
	})
}

type createCustomerRequest struct {
	Name        string `json:"name" binding:"required"`
	CreditLimit string `json:"credit_limit" binding:"required"`
	Balance     string `json:"balance"`
}

// createCustomer registers a customer
func (h *Handler) createCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	limit, err := decimal.NewFromString(req.CreditLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credit_limit"})
		return
	}

	balance := decimal.Zero
	if req.Balance != "" {
		balance, err = decimal.NewFromString(req.Balance)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid balance"})
			return
		}
	}

	customer, err := h.fulfillment.CreateCustomer(c.Request.Context(), req.Name, limit, balance)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrCustomerExists) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, customer)
}

type processOrderRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// processOrder evaluates a single order for the named customer
func (h *Handler) processOrder(c *gin.Context) {
	var req processOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	decision, order, err := h.fulfillment.ProcessOrder(c.Request.Context(), c.Param("name"), amount)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if decision.CreditExceeded {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"outcome": "CREDIT_EXCEEDED",
			"status":  order.Status,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"discount":  decision.Discount,
		"tax":       decision.Tax,
		"routed_to": decision.RoutedTo,
		"total":     decision.Total,
		"status":    decision.Status,
	})
}

func productErrorStatus(err error) int {
	if errors.Is(err, service.ErrProductNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
