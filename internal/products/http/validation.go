package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

var validatorsOnce sync.Once

const tagNotBlank = "notblank"

// registerValidators teaches gin's validator engine to compare decimal
// prices numerically, to reject whitespace-only strings and to report fields
// by their JSON name.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation(tagNotBlank, validators.NotBlank)
		v.RegisterTagNameFunc(fieldName)
	})
}

func decimalValue(field reflect.Value) interface{} {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return f
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func validationDetails(err error) []string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, fmt.Sprintf("%s: failed on the '%s' tag", fe.Field(), fe.Tag()))
		}
		return details
	}
	return []string{"invalid request: " + err.Error()}
}
