package http

import (
	"context"
	"errors"
	"net/http"

	"product-store/internal/products"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	queryMinPrice = "min_price"
	queryMaxPrice = "max_price"

	internalErrorDetail = "internal server error"
)

// ProductUsecase is the collaborator every route delegates to.
type ProductUsecase interface {
	Create(ctx context.Context, in products.ProductIn) (products.Product, error)
	Get(ctx context.Context, id uuid.UUID) (products.Product, error)
	Query(ctx context.Context, filter products.PriceFilter) ([]products.Product, error)
	Update(ctx context.Context, id uuid.UUID, update products.ProductUpdate) (products.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	usecase ProductUsecase
}

func NewHandler(usecase ProductUsecase) *Handler {
	registerValidators()
	return &Handler{usecase: usecase}
}

type productURI struct {
	ID string `uri:"id" binding:"required,uuid4_rfc4122"`
}

type errorResponse struct {
	Detail string `json:"detail" example:"Product not found with filter: 3fa85f64-5717-4562-b3fc-2c963f66afa6"`
}

type validationErrorResponse struct {
	Detail []string `json:"detail" example:"price: failed on the 'gte' tag"`
}

// CreateProduct godoc
// @Summary      Create a new product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body  body      products.ProductIn  true  "Product data"
// @Success      201   {object}  products.Product
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  validationErrorResponse
// @Failure      500   {object}  errorResponse
// @Router       /products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	var body products.ProductIn
	if err := c.ShouldBindJSON(&body); err != nil {
		abortValidation(c, err)
		return
	}

	product, err := h.usecase.Create(c.Request.Context(), body)
	if err != nil {
		var insErr *products.InsertionError
		if errors.As(err, &insErr) {
			abortDetail(c, http.StatusBadRequest, insErr.Message, err)
			return
		}
		abortDetail(c, http.StatusInternalServerError, internalErrorDetail, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProduct godoc
// @Summary      Get a product by ID
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID (UUID v4)"
// @Success      200  {object}  products.Product
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  validationErrorResponse
// @Failure      500  {object}  errorResponse
// @Router       /products/{id} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	product, err := h.usecase.Get(c.Request.Context(), id)
	if err != nil {
		abortNotFoundOr500(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProducts godoc
// @Summary      List products, optionally filtered by price
// @Description  With both bounds the range is exclusive; a single bound is inclusive.
// @Tags         products
// @Produce      json
// @Param        min_price  query     string  false  "Minimum price"
// @Param        max_price  query     string  false  "Maximum price"
// @Success      200        {array}   products.Product
// @Failure      422        {object}  validationErrorResponse
// @Failure      500        {object}  errorResponse
// @Router       /products [get]
func (h *Handler) ListProducts(c *gin.Context) {
	var (
		filter products.PriceFilter
		bad    []string
	)
	filter.Min, bad = parseQueryDecimal(c, queryMinPrice, bad)
	filter.Max, bad = parseQueryDecimal(c, queryMaxPrice, bad)
	if len(bad) > 0 {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, validationErrorResponse{Detail: bad})
		return
	}

	items, err := h.usecase.Query(c.Request.Context(), filter)
	if err != nil {
		abortDetail(c, http.StatusInternalServerError, internalErrorDetail, err)
		return
	}
	if items == nil {
		items = make([]products.Product, 0)
	}

	c.JSON(http.StatusOK, items)
}

// UpdateProduct godoc
// @Summary      Partially update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "Product ID (UUID v4)"
// @Param        body  body      products.ProductUpdate  true  "Fields to change"
// @Success      200   {object}  products.Product
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  validationErrorResponse
// @Failure      500   {object}  errorResponse
// @Router       /products/{id} [patch]
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var body products.ProductUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		abortValidation(c, err)
		return
	}

	product, err := h.usecase.Update(c.Request.Context(), id, body)
	if err != nil {
		abortNotFoundOr500(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct godoc
// @Summary      Delete a product by ID
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID (UUID v4)"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  validationErrorResponse
// @Failure      500  {object}  errorResponse
// @Router       /products/{id} [delete]
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.usecase.Delete(c.Request.Context(), id); err != nil {
		abortNotFoundOr500(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func bindID(c *gin.Context) (uuid.UUID, bool) {
	var uri productURI
	if err := c.ShouldBindUri(&uri); err != nil {
		abortValidation(c, err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(uri.ID)
	if err != nil {
		abortValidation(c, err)
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryDecimal(c *gin.Context, key string, bad []string) (*decimal.Decimal, []string) {
	raw := c.Query(key)
	if raw == "" {
		return nil, bad
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, append(bad, key+": must be a decimal number")
	}
	return &value, bad
}

func abortNotFoundOr500(c *gin.Context, err error) {
	var nf *products.NotFoundError
	if errors.As(err, &nf) {
		abortDetail(c, http.StatusNotFound, nf.Message, err)
		return
	}
	abortDetail(c, http.StatusInternalServerError, internalErrorDetail, err)
}

// abortDetail writes {"detail": message} and records err for the access log.
func abortDetail(c *gin.Context, status int, message string, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Detail: message})
}

func abortValidation(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, validationErrorResponse{Detail: validationDetails(err)})
}
