package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ahmed-mouatassim/saleflow/config"
	"github.com/ahmed-mouatassim/saleflow/models"
	"github.com/ahmed-mouatassim/saleflow/utils"
)

// These tests run against a real MySQL database and are skipped unless
// INTEGRATION_TESTS=1. Connection settings come from the usual DB_* env vars.

func integrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run database tests")
	}
	if config.DB == nil {
		config.ConnectDB()
		if err := config.DB.AutoMigrate(
			&models.Product{}, &models.StockTransaction{},
			&models.Client{}, &models.ClientTransaction{},
			&models.Supplier{}, &models.SupplierTransaction{},
			&models.SalesOrder{}, &models.SalesOrderItem{},
			&models.SupplyOrder{}, &models.SupplyOrderItem{},
			&models.Warehouse{},
		); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	return config.DB
}

// serveJSON drives a single handler through a throwaway router, the way the
// route table would.
func serveJSON(t *testing.T, method string, route string, path string, body string, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Handle(method, route, handler)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func makeProduct(t *testing.T, db *gorm.DB, quantity int) *models.Product {
	t.Helper()
	p := models.Product{
		Reference:     fmt.Sprintf("TST-%d", time.Now().UnixNano()),
		Name:          "test product",
		Quantity:      quantity,
		MinStock:      5,
		PurchasePrice: decimal.RequireFromString("10"),
		SellingPrice:  decimal.RequireFromString("15"),
		MarginRate:    decimal.RequireFromString("0.2"),
		IsActive:      true,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	t.Cleanup(func() {
		db.Where("product_id = ?", p.ID).Delete(&models.StockTransaction{})
		db.Delete(&p)
	})
	return &p
}

func TestApplyStockDeltaGuardsNegative(t *testing.T) {
	db := integrationDB(t)
	p := makeProduct(t, db, 3)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := applyStockDelta(tx, p.ID, -5, stockLogOptions{
			Type: models.TxExit, PerformedBy: "test",
		})
		return err
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}

	var fresh models.Product
	if err := db.First(&fresh, p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.Quantity != 3 {
		t.Errorf("quantity changed to %d after rejected removal, want 3", fresh.Quantity)
	}

	var count int64
	db.Model(&models.StockTransaction{}).Where("product_id = ?", p.ID).Count(&count)
	if count != 0 {
		t.Errorf("ledger has %d rows after rollback, want 0", count)
	}
}

func TestApplyStockDeltaWritesLedgerSnapshots(t *testing.T) {
	db := integrationDB(t)
	p := makeProduct(t, db, 10)

	var entry *models.StockTransaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = applyStockDelta(tx, p.ID, -4, stockLogOptions{
			Type: models.TxSale, UnitPrice: decimal.RequireFromString("15"),
			PerformedBy: "test",
		})
		return txErr
	})
	if err != nil {
		t.Fatalf("applyStockDelta: %v", err)
	}

	if entry.QuantityBefore != 10 || entry.QuantityAfter != 6 || entry.Quantity != 4 {
		t.Errorf("ledger snapshots = (%d, %d, %d), want (10, 6, 4)",
			entry.QuantityBefore, entry.QuantityAfter, entry.Quantity)
	}

	var fresh models.Product
	if err := db.First(&fresh, p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.Quantity != 6 {
		t.Errorf("quantity = %d, want 6", fresh.Quantity)
	}
}

func TestConditionalDecrementRollsBackWholeOrder(t *testing.T) {
	db := integrationDB(t)
	rich := makeProduct(t, db, 50)
	poor := makeProduct(t, db, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := applyConditionalStockDecrement(tx, rich.ID, 10, stockLogOptions{
			Type: models.TxSale, PerformedBy: "test",
		}); err != nil {
			return err
		}
		_, err := applyConditionalStockDecrement(tx, poor.ID, 5, stockLogOptions{
			Type: models.TxSale, PerformedBy: "test",
		})
		return err
	})
	if err == nil {
		t.Fatal("expected insufficient stock error on second item")
	}

	var freshRich, freshPoor models.Product
	db.First(&freshRich, rich.ID)
	db.First(&freshPoor, poor.ID)
	if freshRich.Quantity != 50 {
		t.Errorf("first item quantity = %d after rollback, want 50", freshRich.Quantity)
	}
	if freshPoor.Quantity != 1 {
		t.Errorf("second item quantity = %d after rollback, want 1", freshPoor.Quantity)
	}
}

func makeClient(t *testing.T, db *gorm.DB) *models.Client {
	t.Helper()
	client := models.Client{Name: "test client", IsActive: true}
	err := db.Transaction(func(tx *gorm.DB) error {
		code, err := utils.NextCode(tx, "clients", "CLI-", 4)
		if err != nil {
			return err
		}
		client.Code = code
		return tx.Create(&client).Error
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	t.Cleanup(func() {
		db.Where("client_id = ?", client.ID).Delete(&models.ClientTransaction{})
		db.Delete(&client)
	})
	return &client
}

func makeSalesOrder(t *testing.T, db *gorm.DB, clientID *uint, p *models.Product, quantity int) *models.SalesOrder {
	t.Helper()
	line := p.SellingPrice.Mul(decimal.NewFromInt(int64(quantity)))
	order := models.SalesOrder{
		OrderNumber:   fmt.Sprintf("SO-T%d", time.Now().UnixNano()),
		CustomerID:    clientID,
		Status:        models.SalesDraft,
		PaymentMethod: "cash",
		Subtotal:      line,
		TotalAmount:   line,
		Items: []models.SalesOrderItem{{
			ProductID:        p.ID,
			ProductReference: p.Reference,
			ProductName:      p.Name,
			Quantity:         quantity,
			UnitPrice:        p.SellingPrice,
			PurchasePrice:    p.PurchasePrice,
			LineTotal:        line,
		}},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	t.Cleanup(func() {
		db.Where("order_id = ?", order.ID).Delete(&models.SalesOrderItem{})
		db.Delete(&order)
	})
	return &order
}

func makeWarehouse(t *testing.T, db *gorm.DB, name string) *models.Warehouse {
	t.Helper()
	w := models.Warehouse{Name: name, IsActive: true}
	err := db.Transaction(func(tx *gorm.DB) error {
		code, err := utils.NextCode(tx, "warehouses", "WH-", 3)
		if err != nil {
			return err
		}
		w.Code = code
		return tx.Create(&w).Error
	})
	if err != nil {
		t.Fatalf("create warehouse: %v", err)
	}
	t.Cleanup(func() { db.Delete(&w) })
	return &w
}

func TestClientLedgerSnapshots(t *testing.T) {
	db := integrationDB(t)
	client := makeClient(t, db)

	var purchase, payment *models.ClientTransaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		purchase, txErr = applyClientLedger(tx, client.ID, models.ClientTxPurchase,
			decimal.RequireFromString("200"), nil, nil, nil)
		return txErr
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		payment, txErr = applyClientLedger(tx, client.ID, models.ClientTxPayment,
			decimal.RequireFromString("80"), nil, nil, nil)
		return txErr
	})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}

	if !purchase.BalanceBefore.IsZero() || !purchase.BalanceAfter.Equal(decimal.RequireFromString("200")) {
		t.Errorf("purchase snapshots = (%s, %s), want (0, 200)",
			purchase.BalanceBefore, purchase.BalanceAfter)
	}
	if !payment.BalanceBefore.Equal(decimal.RequireFromString("200")) ||
		!payment.BalanceAfter.Equal(decimal.RequireFromString("120")) {
		t.Errorf("payment snapshots = (%s, %s), want (200, 120)",
			payment.BalanceBefore, payment.BalanceAfter)
	}

	var fresh models.Client
	if err := db.First(&fresh, client.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !fresh.Balance.Equal(decimal.RequireFromString("120")) {
		t.Errorf("balance = %s, want 120", fresh.Balance)
	}
}

func TestSupplierPaymentFlooredAtZero(t *testing.T) {
	db := integrationDB(t)

	supplier := models.Supplier{
		Name:           "floor test",
		CurrentBalance: decimal.RequireFromString("50"),
		IsActive:       true,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		code, err := utils.NextCode(tx, "suppliers", "SUP-", 3)
		if err != nil {
			return err
		}
		supplier.Code = code
		return tx.Create(&supplier).Error
	})
	if err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	t.Cleanup(func() {
		db.Where("supplier_id = ?", supplier.ID).Delete(&models.SupplierTransaction{})
		db.Delete(&supplier)
	})

	var entry *models.SupplierTransaction
	err = db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = applySupplierLedger(tx, supplier.ID, models.SupplierTxPayment,
			decimal.RequireFromString("80"), nil, nil)
		return txErr
	})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}

	if !entry.Amount.Equal(decimal.RequireFromString("50")) {
		t.Errorf("applied amount = %s, want clamped 50", entry.Amount)
	}
	if !entry.BalanceAfter.IsZero() {
		t.Errorf("balance after = %s, want 0", entry.BalanceAfter)
	}

	var fresh models.Supplier
	if err := db.First(&fresh, supplier.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !fresh.CurrentBalance.IsZero() {
		t.Errorf("current balance = %s, want 0", fresh.CurrentBalance)
	}
}

func TestWarehouseSingleDefault(t *testing.T) {
	db := integrationDB(t)

	a := makeWarehouse(t, db, "wh a")
	b := makeWarehouse(t, db, "wh b")

	if err := db.Transaction(func(tx *gorm.DB) error {
		return makeDefault(tx, a.ID)
	}); err != nil {
		t.Fatalf("makeDefault a: %v", err)
	}
	if err := db.Transaction(func(tx *gorm.DB) error {
		return makeDefault(tx, b.ID)
	}); err != nil {
		t.Fatalf("makeDefault b: %v", err)
	}

	var defaults int64
	if err := db.Model(&models.Warehouse{}).
		Where("is_default = ?", true).Count(&defaults).Error; err != nil {
		t.Fatalf("count defaults: %v", err)
	}
	if defaults != 1 {
		t.Errorf("defaults = %d, want exactly 1", defaults)
	}

	var current models.Warehouse
	if err := db.Where("is_default = ?", true).First(&current).Error; err != nil {
		t.Fatalf("load default: %v", err)
	}
	if current.ID != b.ID {
		t.Errorf("default = %d, want most recently set %d", current.ID, b.ID)
	}
}

func TestNextCodeSequence(t *testing.T) {
	db := integrationDB(t)

	var first, second string
	err := db.Transaction(func(tx *gorm.DB) error {
		code, err := utils.NextCode(tx, "clients", "CLI-", 4)
		if err != nil {
			return err
		}
		first = code
		return tx.Create(&models.Client{Code: code, Name: "seq one", IsActive: true}).Error
	})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		code, err := utils.NextCode(tx, "clients", "CLI-", 4)
		if err != nil {
			return err
		}
		second = code
		return tx.Create(&models.Client{Code: code, Name: "seq two", IsActive: true}).Error
	})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	t.Cleanup(func() {
		db.Where("code IN ?", []string{first, second}).Delete(&models.Client{})
	})

	if first == second {
		t.Errorf("consecutive codes collided: %s", first)
	}
}

func TestPaymentBeforeCompletionLedgeredOnce(t *testing.T) {
	db := integrationDB(t)
	p := makeProduct(t, db, 10)
	client := makeClient(t, db)
	order := makeSalesOrder(t, db, &client.ID, p, 2) // total 30 at selling price 15

	w := serveJSON(t, http.MethodPost, "/sales/:id/payment",
		fmt.Sprintf("/sales/%d/payment", order.ID), `{"amount":15}`, RecordSalesPayment)
	if w.Code != http.StatusOK {
		t.Fatalf("payment status = %d, body %s", w.Code, w.Body.String())
	}

	w = serveJSON(t, http.MethodPost, "/sales/:id/complete",
		fmt.Sprintf("/sales/%d/complete", order.ID), "", CompleteSalesOrder)
	if w.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", w.Code, w.Body.String())
	}

	var fresh models.Client
	if err := db.First(&fresh, client.ID).Error; err != nil {
		t.Fatalf("reload client: %v", err)
	}
	if !fresh.TotalPaid.Equal(decimal.RequireFromString("15")) {
		t.Errorf("total_paid = %s, want 15 (payment must not be credited twice)", fresh.TotalPaid)
	}
	if !fresh.TotalPurchases.Equal(decimal.RequireFromString("30")) {
		t.Errorf("total_purchases = %s, want 30", fresh.TotalPurchases)
	}

	var paymentRows int64
	if err := db.Model(&models.ClientTransaction{}).
		Where("client_id = ? AND type = ?", client.ID, models.ClientTxPayment).
		Count(&paymentRows).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if paymentRows != 1 {
		t.Errorf("payment ledger rows = %d, want 1", paymentRows)
	}
}

func TestCompleteAppliesFulfillmentOnce(t *testing.T) {
	db := integrationDB(t)
	p := makeProduct(t, db, 10)
	client := makeClient(t, db)
	order := makeSalesOrder(t, db, &client.ID, p, 2)

	w := serveJSON(t, http.MethodPost, "/sales/:id/complete",
		fmt.Sprintf("/sales/%d/complete", order.ID), "", CompleteSalesOrder)
	if w.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", w.Code, w.Body.String())
	}

	// Unpaid completion leaves the order confirmed; completing again must be
	// rejected without touching stock or the client again.
	w = serveJSON(t, http.MethodPost, "/sales/:id/complete",
		fmt.Sprintf("/sales/%d/complete", order.ID), "", CompleteSalesOrder)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second complete status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var freshProduct models.Product
	if err := db.First(&freshProduct, p.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if freshProduct.Quantity != 8 {
		t.Errorf("quantity = %d, want 8 (stock decremented exactly once)", freshProduct.Quantity)
	}

	var freshClient models.Client
	if err := db.First(&freshClient, client.ID).Error; err != nil {
		t.Fatalf("reload client: %v", err)
	}
	if !freshClient.TotalPurchases.Equal(decimal.RequireFromString("30")) {
		t.Errorf("total_purchases = %s, want 30 (purchase credited exactly once)", freshClient.TotalPurchases)
	}
}

func TestCancelConfirmedOrderRestoresStock(t *testing.T) {
	db := integrationDB(t)
	p := makeProduct(t, db, 10)
	order := makeSalesOrder(t, db, nil, p, 3)

	w := serveJSON(t, http.MethodPost, "/sales/:id/complete",
		fmt.Sprintf("/sales/%d/complete", order.ID), "", CompleteSalesOrder)
	if w.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", w.Code, w.Body.String())
	}

	w = serveJSON(t, http.MethodPost, "/sales/:id/cancel",
		fmt.Sprintf("/sales/%d/cancel", order.ID), "", CancelSalesOrder)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body %s", w.Code, w.Body.String())
	}

	var fresh models.Product
	if err := db.First(&fresh, p.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if fresh.Quantity != 10 {
		t.Errorf("quantity = %d, want 10 restored after cancelling a confirmed order", fresh.Quantity)
	}

	var returns int64
	if err := db.Model(&models.StockTransaction{}).
		Where("product_id = ? AND type = ?", p.ID, models.TxReturnCustomer).
		Count(&returns).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if returns != 1 {
		t.Errorf("returnCustomer ledger rows = %d, want 1", returns)
	}
}

func TestDeactivatingDefaultPromotesOldestActive(t *testing.T) {
	db := integrationDB(t)
	a := makeWarehouse(t, db, "wh main")
	b := makeWarehouse(t, db, "wh backup")

	if err := db.Transaction(func(tx *gorm.DB) error {
		return makeDefault(tx, a.ID)
	}); err != nil {
		t.Fatalf("makeDefault: %v", err)
	}

	w := serveJSON(t, http.MethodPut, "/warehouses/:id",
		fmt.Sprintf("/warehouses/%d", a.ID), `{"is_active":false}`, UpdateWarehouse)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}

	var freshA models.Warehouse
	if err := db.First(&freshA, a.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if freshA.IsActive || freshA.IsDefault {
		t.Errorf("deactivated warehouse = (active %v, default %v), want (false, false)",
			freshA.IsActive, freshA.IsDefault)
	}

	var defaults int64
	if err := db.Model(&models.Warehouse{}).
		Where("is_default = ?", true).Count(&defaults).Error; err != nil {
		t.Fatalf("count defaults: %v", err)
	}
	if defaults != 1 {
		t.Errorf("defaults = %d, want exactly 1 after promotion", defaults)
	}

	var current models.Warehouse
	if err := db.Where("is_default = ?", true).First(&current).Error; err != nil {
		t.Fatalf("load default: %v", err)
	}
	if current.ID == a.ID || !current.IsActive {
		t.Errorf("default = %d (active %v), want an active warehouse other than %d",
			current.ID, current.IsActive, a.ID)
	}

	var freshB models.Warehouse
	if err := db.First(&freshB, b.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !freshB.IsActive {
		t.Errorf("warehouse %d deactivated as a side effect", b.ID)
	}
}
