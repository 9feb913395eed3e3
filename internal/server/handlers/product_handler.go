package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/domain/models"
	"github.com/mamadbah2/salesboard/internal/service/inventorysync"
)

var (
	errMissingPrice  = errors.New("price is required")
	errNegativePrice = errors.New("price must not be negative")
)

type createProductRequest struct {
	Name       string           `json:"name" binding:"required"`
	AttrNumber string           `json:"attr_num"`
	Price      *decimal.Decimal `json:"price"`
}

// ProductHandler serves the product catalogue.
type ProductHandler struct {
	sync   *inventorysync.Service
	logger *zap.Logger
}

// NewProductHandler constructs the product handler.
func NewProductHandler(sync *inventorysync.Service, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{sync: sync, logger: logger}
}

// List returns the products matching ?q=, or all of them.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.sync.SearchProducts(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.logger, "failed to load products", err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}

// Create adds a product to the catalogue.
func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid product payload", err)
		return
	}
	switch {
	case req.Price == nil:
		badRequest(c, h.logger, "invalid product payload", errMissingPrice)
		return
	case req.Price.IsNegative():
		badRequest(c, h.logger, "invalid product payload", errNegativePrice)
		return
	}

	product, err := h.sync.CreateProduct(c.Request.Context(), models.NewProduct{
		Name:       strings.TrimSpace(req.Name),
		AttrNumber: strings.TrimSpace(req.AttrNumber),
		Price:      *req.Price,
	})
	if err != nil {
		respondError(c, h.logger, "failed to create product", err)
		return
	}
	h.logger.Info("product created", zap.Int64("product_id", product.ID), zap.String("name", product.Name))
	c.JSON(http.StatusCreated, product)
}
