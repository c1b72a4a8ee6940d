package routes

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ahmed-mouatassim/saleflow/controllers"
	"github.com/ahmed-mouatassim/saleflow/middlewares"
	"github.com/ahmed-mouatassim/saleflow/models"
)

func SetupRoutes(r *gin.Engine) {

	r.HandleMethodNotAllowed = true
	r.NoMethod(methodNotAllowed(r))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", controllers.Login)

			authed := auth.Group("/", middlewares.Auth())
			authed.GET("/me", controllers.Me)
			authed.POST("/change-password", controllers.ChangePassword)

			admin := auth.Group("/", middlewares.Auth(), middlewares.RequireRole(models.RoleAdmin))
			admin.GET("/users", controllers.GetUsers)
			admin.POST("/users", controllers.CreateUser)
			admin.PUT("/users/:id", controllers.UpdateUser)
			admin.DELETE("/users/:id", controllers.DeleteUser)
		}

		protected := api.Group("/", middlewares.Auth())

		products := protected.Group("/products")
		{
			products.GET("", controllers.GetProducts)
			products.GET("/categories", controllers.GetProductCategories)
			products.GET("/suppliers", controllers.GetProductSuppliers)
			products.GET("/low-stock", controllers.GetLowStockProducts)
			products.GET("/stats", controllers.GetProductStats)
			products.GET("/transactions", controllers.GetRecentProductTransactions)
			products.GET("/:id", controllers.GetProduct)
			products.POST("", controllers.CreateProduct)
			products.PUT("/:id", controllers.UpdateProduct)
			products.DELETE("/:id", controllers.DeleteProduct)
			products.POST("/:id/stock/add", controllers.AddProductStock)
			products.POST("/:id/stock/remove", controllers.RemoveProductStock)
		}

		transactions := protected.Group("/transactions")
		{
			transactions.GET("", controllers.GetStockTransactions)
			transactions.GET("/pending-approval", controllers.GetPendingApprovalTransactions)
			transactions.GET("/stats", controllers.GetTransactionStats)
			transactions.GET("/by-date", controllers.GetTransactionsByDate)
			transactions.GET("/by-product/:id", controllers.GetTransactionsByProduct)
			transactions.GET("/by-type/:type", controllers.GetTransactionsByType)
			transactions.GET("/:id", controllers.GetStockTransaction)
			transactions.POST("", controllers.CreateStockTransaction)
			transactions.POST("/:id/approve", controllers.ApproveStockTransaction)
			transactions.PUT("/:id", controllers.UpdateStockTransaction)
			transactions.DELETE("/:id", controllers.DeleteStockTransaction)
		}

		clients := protected.Group("/clients")
		{
			clients.GET("", controllers.GetClients)
			clients.GET("/debtors", controllers.GetDebtors)
			clients.GET("/cities", controllers.GetClientCities)
			clients.GET("/stats", controllers.GetClientStats)
			clients.GET("/:id", controllers.GetClient)
			clients.GET("/:id/transactions", controllers.GetClientTransactions)
			clients.POST("", controllers.CreateClient)
			clients.PUT("/:id", controllers.UpdateClient)
			clients.DELETE("/:id", controllers.DeleteClient)
			clients.POST("/:id/payment", controllers.RecordClientPayment)
			clients.POST("/:id/purchase", controllers.RecordClientPurchase)
		}

		suppliers := protected.Group("/suppliers")
		{
			suppliers.GET("", controllers.GetSuppliers)
			suppliers.GET("/with-balance", controllers.GetSuppliersWithBalance)
			suppliers.GET("/stats", controllers.GetSupplierStats)
			suppliers.GET("/:id", controllers.GetSupplier)
			suppliers.GET("/:id/products", controllers.GetSupplierProducts)
			suppliers.POST("", controllers.CreateSupplier)
			suppliers.PUT("/:id", controllers.UpdateSupplier)
			suppliers.DELETE("/:id", controllers.DeleteSupplier)
			suppliers.POST("/:id/payment", controllers.RecordSupplierPayment)
		}

		sales := protected.Group("/sales")
		{
			sales.GET("", controllers.GetSalesOrders)
			sales.GET("/stats", controllers.GetSalesStats)
			sales.GET("/daily-report", controllers.GetDailySalesReport)
			sales.GET("/top-products", controllers.GetTopSellingProducts)
			sales.GET("/by-customer/:id", controllers.GetSalesByCustomer)
			sales.GET("/:id", controllers.GetSalesOrder)
			sales.POST("", controllers.CreateSalesOrder)
			sales.POST("/:id/complete", controllers.CompleteSalesOrder)
			sales.POST("/:id/payment", controllers.RecordSalesPayment)
			sales.POST("/:id/cancel", controllers.CancelSalesOrder)
			sales.PUT("/:id", controllers.UpdateSalesOrder)
			sales.DELETE("/:id", controllers.DeleteSalesOrder)
		}

		supply := protected.Group("/supply")
		{
			supply.GET("", controllers.GetSupplyOrders)
			supply.GET("/pending", controllers.GetPendingSupplyOrders)
			supply.GET("/stats", controllers.GetSupplyStats)
			supply.GET("/by-supplier/:id", controllers.GetSupplyOrdersBySupplier)
			supply.GET("/:id", controllers.GetSupplyOrder)
			supply.POST("", controllers.CreateSupplyOrder)
			supply.POST("/:id/approve", controllers.ApproveSupplyOrder)
			supply.POST("/:id/receive", controllers.ReceiveSupplyOrder)
			supply.POST("/items/:id/receive", controllers.ReceiveSupplyOrderItem)
			supply.POST("/:id/cancel", controllers.CancelSupplyOrder)
			supply.PUT("/:id", controllers.UpdateSupplyOrder)
			supply.DELETE("/:id", controllers.DeleteSupplyOrder)
		}

		warehouses := protected.Group("/warehouses")
		{
			warehouses.GET("", controllers.GetWarehouses)
			warehouses.GET("/default", controllers.GetDefaultWarehouse)
			warehouses.GET("/stats", controllers.GetWarehouseStats)
			warehouses.GET("/:id", controllers.GetWarehouse)
			warehouses.GET("/:id/stock", controllers.GetWarehouseStock)
			warehouses.POST("", controllers.CreateWarehouse)
			warehouses.PUT("/:id", controllers.UpdateWarehouse)
			warehouses.DELETE("/:id", controllers.DeleteWarehouse)
			warehouses.POST("/set-default", controllers.SetDefaultWarehouse)
			warehouses.POST("/transfer", controllers.TransferWarehouseStock)
		}

		reports := protected.Group("/reports")
		{
			reports.GET("/dashboard", controllers.GetDashboardReport)
			reports.GET("/inventory", controllers.GetInventoryReport)
			reports.GET("/financial", controllers.GetFinancialReport)
			reports.GET("/daily-summary", controllers.GetDailySummaryReport)
		}
	}
}

// methodNotAllowed answers in the standard envelope with an Allow header
// listing the methods registered for the request path. Gin only runs this
// when the path exists under some other method.
func methodNotAllowed(r *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if allowed := allowedMethods(r, c.Request.URL.Path); len(allowed) > 0 {
			c.Header("Allow", strings.Join(allowed, ", "))
		}
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "message": "Method not allowed"})
	}
}

func allowedMethods(r *gin.Engine, path string) []string {
	seen := map[string]bool{}
	for _, route := range r.Routes() {
		if !seen[route.Method] && routeMatches(route.Path, path) {
			seen[route.Method] = true
		}
	}
	methods := make([]string, 0, len(seen))
	for m := range seen {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// routeMatches compares a registered pattern against a concrete request
// path, segment by segment. :params match any non-empty segment, *wildcards
// match the rest.
func routeMatches(pattern string, path string) bool {
	ps := strings.Split(pattern, "/")
	qs := strings.Split(path, "/")
	for i, seg := range ps {
		if strings.HasPrefix(seg, "*") {
			return true
		}
		if i >= len(qs) {
			return false
		}
		if strings.HasPrefix(seg, ":") {
			if qs[i] == "" {
				return false
			}
			continue
		}
		if seg != qs[i] {
			return false
		}
	}
	return len(ps) == len(qs)
}
