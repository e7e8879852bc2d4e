package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/rl1809/shop-ledger/internal/adapter/handler"
	"github.com/rl1809/shop-ledger/internal/adapter/storage"
	"github.com/rl1809/shop-ledger/internal/core/service"
)

type testEnv struct {
	server *httptest.Server
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	inventory := service.NewInventoryService(storage.NewMemoryAdapter())
	mux := http.NewServeMux()
	handler.NewHTTPHandler(inventory).Register(mux)

	server := httptest.NewServer(handler.WithRequestLogging(mux))
	t.Cleanup(server.Close)

	return &testEnv{server: server}
}

func (e *testEnv) do(t *testing.T, method, path string, payload, out interface{}) int {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}

	req, err := http.NewRequest(method, e.server.URL+path, &body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestIntegration_FullOrderFlow(t *testing.T) {
	env := setupTestEnv(t)

	var product handler.ProductResponse
	status := env.do(t, http.MethodPost, "/api/products", handler.ProductPayload{
		Name:      "Pen",
		Category:  "GROCERY",
		Price:     2.0,
		Available: 10,
		UserID:    1,
	}, &product)
	if status != http.StatusCreated || product.ID != 1 {
		t.Fatalf("create product: status %d, product %+v", status, product)
	}

	var line handler.CartLineResponse
	status = env.do(t, http.MethodPost, "/api/cart", handler.CartLinePayload{
		UserID: 2, ProductID: product.ID, Quantity: 2,
	}, &line)
	if status != http.StatusCreated || line.ProductName != "Pen" {
		t.Fatalf("add to cart: status %d, line %+v", status, line)
	}

	var order handler.OrderResponse
	status = env.do(t, http.MethodPost, "/api/orders", handler.OrderPayload{
		UserID: 2, ProductID: product.ID, Quantity: 4, PaymentType: "CARD",
	}, &order)
	if status != http.StatusCreated || order.ID != 1 {
		t.Fatalf("place order: status %d, order %+v", status, order)
	}

	var got handler.ProductResponse
	env.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", product.ID), nil, &got)
	if got.Available != 6 {
		t.Errorf("expected available 6 after order, got %d", got.Available)
	}

	// Cart lines survive order placement.
	var lines []handler.CartLineResponse
	env.do(t, http.MethodGet, "/api/cart?user_id=2", nil, &lines)
	if len(lines) != 1 {
		t.Errorf("expected cart untouched by order, got %d lines", len(lines))
	}

	status = env.do(t, http.MethodDelete, fmt.Sprintf("/api/orders/%d", order.ID), nil, nil)
	if status != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", status)
	}

	env.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", product.ID), nil, &got)
	if got.Available != 10 {
		t.Errorf("expected available restored to 10, got %d", got.Available)
	}

	status = env.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", order.ID), nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("cancelled order lookup: expected 404, got %d", status)
	}
}

func TestIntegration_ConcurrentOrderAdmission(t *testing.T) {
	env := setupTestEnv(t)

	const initialStock = 20
	const totalRequests = 50

	var product handler.ProductResponse
	env.do(t, http.MethodPost, "/api/products", handler.ProductPayload{
		Name:      "Notebook",
		Category:  "BOOKS",
		Price:     4.5,
		Available: initialStock,
		UserID:    1,
	}, &product)

	var successCount, rejectCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			body, _ := json.Marshal(handler.OrderPayload{
				UserID: userID, ProductID: product.ID, Quantity: 1, PaymentType: "UPI",
			})
			resp, err := http.Post(env.server.URL+"/api/orders", "application/json", bytes.NewReader(body))
			if err != nil {
				t.Errorf("place order: %v", err)
				return
			}
			resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusConflict:
				rejectCount.Add(1)
			default:
				t.Errorf("unexpected status %d", resp.StatusCode)
			}
		}(int64(i + 2))
	}
	wg.Wait()

	if successCount.Load() != initialStock {
		t.Errorf("expected %d admitted orders, got %d", initialStock, successCount.Load())
	}
	if rejectCount.Load() != totalRequests-initialStock {
		t.Errorf("expected %d rejections, got %d", totalRequests-initialStock, rejectCount.Load())
	}

	var got handler.ProductResponse
	env.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", product.ID), nil, &got)
	if got.Available != 0 {
		t.Errorf("expected available 0, got %d", got.Available)
	}
}
