package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rl1809/shop-ledger/internal/adapter/storage"
	"github.com/rl1809/shop-ledger/internal/core/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	inventory := service.NewInventoryService(storage.NewMemoryAdapter())
	mux := http.NewServeMux()
	NewHTTPHandler(inventory).Register(mux)

	srv := httptest.NewServer(WithRequestLogging(mux))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, payload interface{}) *http.Response {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createPen(t *testing.T, srv *httptest.Server, available int64) ProductResponse {
	t.Helper()

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", ProductPayload{
		Name:      "Pen",
		Category:  "GROCERY",
		Price:     2.0,
		Available: available,
		UserID:    1,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d", resp.StatusCode)
	}

	var product ProductResponse
	decode(t, resp, &product)
	return product
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header")
	}
}

func TestProductLifecycle(t *testing.T) {
	srv := newTestServer(t)
	product := createPen(t, srv, 10)

	if product.ID != 1 {
		t.Errorf("expected product id 1, got %d", product.ID)
	}
	if _, err := time.Parse(time.RFC3339, product.UpdatedAt); err != nil {
		t.Errorf("updated_at must be RFC 3339, got %q: %v", product.UpdatedAt, err)
	}

	resp := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/products/%d", srv.URL, product.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get: expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/products/%d", srv.URL, product.ID), ProductPayload{
		Name: "Gold Pen", Category: "GROCERY", Price: 5.0, Available: 10, UserID: 1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("update: expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/products/%d", srv.URL, product.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/products/%d", srv.URL, product.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted: expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateProduct_BadPayloads(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", ProductPayload{UserID: 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing name: expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/products", ProductPayload{
		Name: "Pen", Category: "TOYS", UserID: 1,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown category: expected 400, got %d", resp.StatusCode)
	}
}

func TestOrderFlow(t *testing.T) {
	srv := newTestServer(t)
	product := createPen(t, srv, 10)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/orders", OrderPayload{
		UserID: 2, ProductID: product.ID, Quantity: 4, PaymentType: "CARD",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place: expected 201, got %d", resp.StatusCode)
	}
	var order OrderResponse
	decode(t, resp, &order)
	if order.ID != 1 || order.ProductName != "Pen" {
		t.Errorf("unexpected order: %+v", order)
	}

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/products/%d", srv.URL, product.ID), nil)
	var got ProductResponse
	decode(t, resp, &got)
	if got.Available != 6 {
		t.Errorf("expected available 6 after order, got %d", got.Available)
	}

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/orders/%d", srv.URL, order.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/products/%d", srv.URL, product.ID), nil)
	decode(t, resp, &got)
	if got.Available != 10 {
		t.Errorf("expected available restored to 10, got %d", got.Available)
	}

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/orders/%d", srv.URL, order.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second cancel: expected 404, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InsufficientStockMapsToConflict(t *testing.T) {
	srv := newTestServer(t)
	product := createPen(t, srv, 10)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/orders", OrderPayload{
		UserID: 2, ProductID: product.ID, Quantity: 999, PaymentType: "CASH",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	var body ErrorResponse
	decode(t, resp, &body)
	if body.Message != "insufficient stock" {
		t.Errorf("unexpected message %q", body.Message)
	}
}

func TestCartEndpoints(t *testing.T) {
	srv := newTestServer(t)
	product := createPen(t, srv, 10)

	for i := 0; i < 2; i++ {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/cart", CartLinePayload{
			UserID: 2, ProductID: product.ID, Quantity: 1,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("add to cart: expected 201, got %d", resp.StatusCode)
		}
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/cart?user_id=2", nil)
	var lines []CartLineResponse
	decode(t, resp, &lines)
	if len(lines) != 2 {
		t.Fatalf("expected 2 cart lines (no dedup), got %d", len(lines))
	}

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/cart/quantity", QuantityPayload{
		UserID: 2, ProductID: product.ID, Delta: 3,
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("adjust quantity: expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/cart/product-ids?user_id=2", nil)
	var ids map[string][]int64
	decode(t, resp, &ids)
	if len(ids["product_ids"]) != 2 {
		t.Errorf("expected 2 product ids, got %v", ids["product_ids"])
	}

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/cart/%d", srv.URL, lines[0].ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("remove line: expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/cart?user_id=2", nil)
	decode(t, resp, &lines)
	if len(lines) != 1 {
		t.Errorf("expected 1 line after removal, got %d", len(lines))
	}
}

func TestBadIDsAndMissingUser(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/products/banana", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("non-numeric id: expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/cart", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing user_id: expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/orders/99", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown order: expected 404, got %d", resp.StatusCode)
	}
}
