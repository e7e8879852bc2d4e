package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/shop-ledger/internal/core/domain"
	"github.com/rl1809/shop-ledger/internal/core/service"
)

// HTTPHandler adapts the inventory engine to JSON over HTTP. It performs
// presence validation, calls exactly one engine operation per request, and
// maps the engine's error kinds to status codes.
type HTTPHandler struct {
	inventory *service.InventoryService
}

func NewHTTPHandler(inventory *service.InventoryService) *HTTPHandler {
	return &HTTPHandler{inventory: inventory}
}

// Register wires all routes onto mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.UpdateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.DeleteProduct)
	mux.HandleFunc("PATCH /api/products/{id}/stock", h.AdjustStock)

	mux.HandleFunc("POST /api/cart", h.AddToCart)
	mux.HandleFunc("GET /api/cart", h.ListCart)
	mux.HandleFunc("GET /api/cart/product-ids", h.CartProductIDs)
	mux.HandleFunc("PATCH /api/cart/quantity", h.AdjustCartQuantity)
	mux.HandleFunc("GET /api/cart/{id}", h.GetCartLine)
	mux.HandleFunc("DELETE /api/cart/{id}", h.RemoveFromCart)

	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", h.CancelOrder)
}

type ProductPayload struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Available   int64   `json:"available"`
	UserID      int64   `json:"user_id"`
}

type ProductResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Available   int64   `json:"available"`
	UserID      int64   `json:"user_id"`
	UpdatedAt   string  `json:"updated_at"`
}

type CartLinePayload struct {
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CartLineResponse struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	UserID      int64   `json:"user_id"`
}

type QuantityPayload struct {
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
	Delta     int64 `json:"delta"`
}

type OrderPayload struct {
	UserID      int64  `json:"user_id"`
	ProductID   int64  `json:"product_id"`
	Quantity    int64  `json:"quantity"`
	PaymentType string `json:"payment_type"`
}

type OrderResponse struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	UserID      int64   `json:"user_id"`
	PaymentType string  `json:"payment_type"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    string(p.Category),
		Price:       p.Price,
		Available:   p.Available,
		UserID:      p.UserID,
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toCartLineResponse(line domain.CartLine) CartLineResponse {
	return CartLineResponse{
		ID:          line.ID,
		ProductID:   line.ProductID,
		ProductName: line.ProductName,
		Quantity:    line.Quantity,
		UnitPrice:   line.UnitPrice,
		UserID:      line.UserID,
	}
}

func toOrderResponse(o domain.Order) OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		ProductID:   o.ProductID,
		ProductName: o.ProductName,
		Quantity:    o.Quantity,
		UnitPrice:   o.UnitPrice,
		UserID:      o.UserID,
		PaymentType: string(o.PaymentType),
	}
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var payload ProductPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}
	if payload.Name == "" || payload.UserID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "missing required fields"})
		return
	}

	product := domain.Product{
		Name:        payload.Name,
		Description: payload.Description,
		Category:    domain.Category(payload.Category),
		Price:       payload.Price,
		Available:   payload.Available,
		UserID:      payload.UserID,
	}
	created, err := h.inventory.CreateProduct(r.Context(), &product)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(created))
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []domain.Product
		err      error
	)
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid user_id"})
			return
		}
		products, err = h.inventory.ListProductsByOwner(r.Context(), userID)
	} else {
		products, err = h.inventory.ListProducts(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	product, err := h.inventory.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload ProductPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}

	product := domain.Product{
		Name:        payload.Name,
		Description: payload.Description,
		Category:    domain.Category(payload.Category),
		Price:       payload.Price,
		Available:   payload.Available,
		UserID:      payload.UserID,
	}
	if err := h.inventory.UpdateProduct(r.Context(), id, &product); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ErrorResponse{Success: true, Message: "product updated"})
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.inventory.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ErrorResponse{Success: true, Message: "product deleted"})
}

func (h *HTTPHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Delta int64 `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}
	if err := h.inventory.AdjustAvailable(r.Context(), id, payload.Delta); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ErrorResponse{Success: true, Message: "stock adjusted"})
}

func (h *HTTPHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var payload CartLinePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}
	if payload.UserID <= 0 || payload.ProductID <= 0 || payload.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "missing required fields"})
		return
	}

	line, err := h.inventory.AddToCart(r.Context(), payload.UserID, payload.ProductID, payload.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartLineResponse(line))
}

func (h *HTTPHandler) ListCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}
	lines, err := h.inventory.CartForUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]CartLineResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, toCartLineResponse(line))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) GetCartLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	line, err := h.inventory.GetCartLine(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartLineResponse(line))
}

func (h *HTTPHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.inventory.RemoveFromCart(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ErrorResponse{Success: true, Message: "cart line removed"})
}

func (h *HTTPHandler) CartProductIDs(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}
	ids, err := h.inventory.CartProductIDs(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"product_ids": ids})
}

func (h *HTTPHandler) AdjustCartQuantity(w http.ResponseWriter, r *http.Request) {
	var payload QuantityPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}
	if payload.UserID <= 0 || payload.ProductID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "missing required fields"})
		return
	}

	if err := h.inventory.AdjustCartQuantity(r.Context(), payload.UserID, payload.ProductID, payload.Delta); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ErrorResponse{Success: true, Message: "quantity updated"})
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var payload OrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}
	if payload.UserID <= 0 || payload.ProductID <= 0 || payload.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "missing required fields"})
		return
	}

	order, err := h.inventory.PlaceOrder(r.Context(), payload.UserID, payload.ProductID,
		payload.Quantity, domain.PaymentType(payload.PaymentType))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(w, r)
	if !ok {
		return
	}
	orders, err := h.inventory.OrdersForUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.inventory.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.inventory.CancelOrder(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ErrorResponse{Success: true, Message: "order cancelled"})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
		return 0, false
	}
	return id, true
}

func queryUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid user_id"})
		return 0, false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
		message = "invalid argument"
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, domain.ErrInsufficientStock):
		status = http.StatusConflict
		message = "insufficient stock"
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
		message = "conflict"
	case errors.Is(err, domain.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
		message = "storage unavailable"
	}

	zap.S().Infow("request failed",
		"request_id", RequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err)

	writeJSON(w, status, ErrorResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
