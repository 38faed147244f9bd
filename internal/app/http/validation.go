package routes

import (
	"strings"
	"sync"

	"academy-api/internal/domain/tiers"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules used by request DTOs.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("currency", validCurrency)
		}
	})
}

func validCurrency(fl validator.FieldLevel) bool {
	switch strings.ToUpper(strings.TrimSpace(fl.Field().String())) {
	case tiers.CurrencyBWP, tiers.CurrencyZAR:
		return true
	default:
		return false
	}
}
