package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"

	"product-store/internal/products"
	"product-store/internal/products/repository"
	"product-store/internal/products/service"

	"github.com/prometheus/client_golang/prometheus"
)

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, products.ProductEvent) error { return nil }

func newFlowRouter() http.Handler {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	svc := service.New(repository.NewMemory(), discardPublisher{}, logger, service.Counters{
		Created: prometheus.NewCounter(prometheus.CounterOpts{Name: "flow_created", Help: "t"}),
		Updated: prometheus.NewCounter(prometheus.CounterOpts{Name: "flow_updated", Help: "t"}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{Name: "flow_deleted", Help: "t"}),
	})
	return setupRouter(svc)
}

func decodeProduct(t *testing.T, raw []byte) products.Product {
	t.Helper()
	var p products.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("decode product: %v, body: %s", err, raw)
	}
	return p
}

func TestProductLifecycle(t *testing.T) {
	r := newFlowRouter()

	w := doRequest(r, http.MethodGet, "/products", "")
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("want 200 [], got %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodPost, "/products", `{"name":"Iphone 14 Pro Max","quantity":10,"price":"8500.00","status":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: want 201, got %d %s", w.Code, w.Body.String())
	}
	created := decodeProduct(t, w.Body.Bytes())
	if created.Name != "Iphone 14 Pro Max" || created.Quantity != 10 || created.Price.String() != "8500" || !created.Status {
		t.Fatalf("created product does not match input: %+v", created)
	}

	w = doRequest(r, http.MethodPost, "/products", `{"name":"Iphone 14 Pro Max","quantity":1,"price":"1","status":true}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate create: want 400, got %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodPost, "/products", `{"name":"   ","quantity":1,"price":"1","status":true}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank name: want 422, got %d %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodPost, "/products", `{"name":" b ","quantity":1,"price":"1.005","status":false}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("padded name: want 201, got %d %s", w.Code, w.Body.String())
	}
	padded := decodeProduct(t, w.Body.Bytes())
	if padded.Name != " b " || padded.Price.String() != "1.005" {
		t.Fatalf("want name and price kept as sent, got %q %s", padded.Name, padded.Price)
	}
	w = doRequest(r, http.MethodDelete, "/products/"+strings.ToUpper(padded.ID.String()), "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete by upper-case id: want 204, got %d %s", w.Code, w.Body.String())
	}

	url := "/products/" + created.ID.String()
	w = doRequest(r, http.MethodGet, url, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: want 200, got %d", w.Code)
	}
	got := decodeProduct(t, w.Body.Bytes())
	if got.ID != created.ID || got.Name != created.Name || !got.Price.Equal(created.Price) ||
		got.Quantity != created.Quantity || got.Status != created.Status || !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, created)
	}

	w = doRequest(r, http.MethodPatch, url, `{"price":"7999.90"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch: want 200, got %d %s", w.Code, w.Body.String())
	}
	patched := decodeProduct(t, w.Body.Bytes())
	if patched.Price.String() != "7999.9" || patched.Quantity != 10 || !patched.Status || patched.Name != created.Name {
		t.Fatalf("patch changed more than price: %+v", patched)
	}
	if patched.UpdatedAt.Before(created.UpdatedAt) {
		t.Fatalf("updated_at moved backwards: %v < %v", patched.UpdatedAt, created.UpdatedAt)
	}

	w = doRequest(r, http.MethodGet, "/products?max_price=8000", "")
	var filtered []products.Product
	if err := json.Unmarshal(w.Body.Bytes(), &filtered); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != created.ID {
		t.Fatalf("want patched product under max_price, got %+v", filtered)
	}

	w = doRequest(r, http.MethodDelete, url, "")
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("delete: want 204 empty, got %d %q", w.Code, w.Body.String())
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w = doRequest(r, method, url, "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s after delete: want 404, got %d", method, w.Code)
		}
	}
	w = doRequest(r, http.MethodPatch, url, `{"status":false}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("patch after delete: want 404, got %d", w.Code)
	}
}
