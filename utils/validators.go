package utils

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ahmed-mouatassim/saleflow/models"
)

// RegisterValidators installs custom rules on gin's binding engine. Called
// once from main before routes are served.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("stocktxtype", func(fl validator.FieldLevel) bool {
		_, known := models.StockDelta(models.StockTransactionType(fl.Field().String()))
		return known
	})
}
