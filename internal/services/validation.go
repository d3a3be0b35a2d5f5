package services

import (
	"errors"
	"reflect"
	"strings"

	"kabro/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and returns field -> failed rule.
func validateStruct(s interface{}) map[string]string {
	fields := map[string]string{}
	err := validate.Struct(s)
	if err == nil {
		return fields
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["_"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return fields
}

// fieldPath drops the struct name: "PlaceOrderInput.items[0].qty" -> "items[0].qty".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func invalidIfAny(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return apperr.Invalid(fields)
}
