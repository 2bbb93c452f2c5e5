// Package validator registers custom validation tags with Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"papertrade/internal/models"
)

// symbolPattern matches ticker symbols: 1-10 letters with optional dot or
// hyphen separators (BRK.B, RDS-A).
var symbolPattern = regexp.MustCompile(`^[A-Za-z]{1,10}([.-][A-Za-z]{1,4})?$`)

// Register installs the custom validation tags on Gin's binding engine.
// Must be called once at startup before any routes are served.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("symbol", validSymbol); err != nil {
		return err
	}
	if err := v.RegisterValidation("plan_id", validPlanID); err != nil {
		return err
	}
	return nil
}

// validSymbol validates ticker symbol format.
func validSymbol(fl validator.FieldLevel) bool {
	return symbolPattern.MatchString(fl.Field().String())
}

// validPlanID validates that the value names a plan in the catalog.
func validPlanID(fl validator.FieldLevel) bool {
	_, ok := models.Plans[models.PlanID(fl.Field().String())]
	return ok
}
