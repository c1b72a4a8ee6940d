package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ahmed-mouatassim/saleflow/utils"
)

// Binding-level tests: these requests must be rejected before any query runs,
// so they need no database.

func postJSON(t *testing.T, handler gin.HandlerFunc, path string, route string, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.RegisterValidators()

	r := gin.New()
	r.POST(route, handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateProductRejectsInvalidJSON(t *testing.T) {
	w := postJSON(t, CreateProduct, "/products", "/products", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateProductRejectsMissingFields(t *testing.T) {
	w := postJSON(t, CreateProduct, "/products", "/products", `{"name":"Paracetamol"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateStockTransactionRejectsUnknownType(t *testing.T) {
	w := postJSON(t, CreateStockTransaction, "/transactions", "/transactions",
		`{"product_id":1,"type":"theft","quantity":5}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateStockTransactionRejectsZeroQuantity(t *testing.T) {
	w := postJSON(t, CreateStockTransaction, "/transactions", "/transactions",
		`{"product_id":1,"type":"entry","quantity":0}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAddProductStockRejectsNegativeQuantity(t *testing.T) {
	w := postJSON(t, AddProductStock, "/products/1/stock/add", "/products/:id/stock/add",
		`{"quantity":-4}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAddProductStockRejectsBadID(t *testing.T) {
	w := postJSON(t, AddProductStock, "/products/abc/stock/add", "/products/:id/stock/add",
		`{"quantity":4}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateSalesOrderRejectsEmptyItems(t *testing.T) {
	w := postJSON(t, CreateSalesOrder, "/sales", "/sales", `{"items":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateSupplyOrderRejectsItemWithoutProduct(t *testing.T) {
	w := postJSON(t, CreateSupplyOrder, "/supply", "/supply",
		`{"items":[{"quantity":3}]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestTransferRejectsSameWarehouse(t *testing.T) {
	w := postJSON(t, TransferWarehouseStock, "/warehouses/transfer", "/warehouses/transfer",
		`{"product_id":1,"from_warehouse_id":2,"to_warehouse_id":2,"quantity":1}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
