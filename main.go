package main

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ahmed-mouatassim/saleflow/config"
	"github.com/ahmed-mouatassim/saleflow/middlewares"
	"github.com/ahmed-mouatassim/saleflow/models"
	"github.com/ahmed-mouatassim/saleflow/routes"
	"github.com/ahmed-mouatassim/saleflow/utils"
)

func main() {
	// Money fields serialize as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	config.ConnectDB()

	if err := config.DB.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.StockTransaction{},
		&models.Client{},
		&models.ClientTransaction{},
		&models.Supplier{},
		&models.SupplierTransaction{},
		&models.SalesOrder{},
		&models.SalesOrderItem{},
		&models.SupplyOrder{},
		&models.SupplyOrderItem{},
		&models.Warehouse{},
	); err != nil {
		config.GetLogger().WithError(err).Fatal("auto-migrate failed")
	}

	if s := os.Getenv("JWT_SECRET"); s != "" {
		utils.Secret = []byte(s)
	}

	utils.RegisterValidators()

	r := gin.Default()
	r.Use(middlewares.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
		ExposeHeaders:    []string{middlewares.RequestIDHeader},
		AllowCredentials: false,
	}))

	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		config.GetLogger().WithError(err).Fatal("server exited")
	}
}
