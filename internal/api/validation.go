package api

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// report errors under the JSON field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "max_bytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	mustRegister(v, "decimal_gte", decimalCompare(func(d, limit decimal.Decimal) bool {
		return d.GreaterThanOrEqual(limit)
	}))
	mustRegister(v, "max_digits", decimalShapeCheck(func(total, _, _ int, limit int) bool {
		return total <= limit
	}))
	mustRegister(v, "decimal_places", decimalShapeCheck(func(_, places, _ int, limit int) bool {
		return places <= limit
	}))
	mustRegister(v, "whole_digits", decimalShapeCheck(func(_, _, whole int, limit int) bool {
		return whole <= limit
	}))

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func decimalCompare(ok func(d, limit decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		limit, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return ok(d, limit)
	}
}

func decimalShapeCheck(ok func(total, places, whole, limit int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		total, places, whole, err := decimalShape(fl.Field().String())
		if err != nil {
			return false
		}
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return ok(total, places, whole, limit)
	}
}

// decimalShape counts significant digits the way numeric(p,s) precision is
// checked: trailing fraction zeros count, leading zeros do not.
func decimalShape(text string) (total, places, whole int, err error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, 0, 0, err
	}

	digits := len(strings.TrimPrefix(d.Coefficient().String(), "-"))
	exp := int(d.Exponent())

	switch {
	case exp >= 0:
		total = digits + exp
		whole = total
	case -exp > digits:
		total = -exp
		places = -exp
	default:
		total = digits
		places = -exp
		whole = total - places
	}
	return total, places, whole, nil
}

// validateFields runs the struct tags of the named Go fields and merges the
// messages into errs, skipping fields that already failed to parse
func validateFields(s interface{}, fields []string, errs FieldErrors) {
	if len(fields) == 0 {
		return
	}
	err := validate.StructPartial(s, fields...)
	if err == nil {
		return
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add(nonFieldErrors, err.Error())
		return
	}

	for _, fe := range verrs {
		if errs.Has(fe.Field()) {
			continue
		}
		errs.Add(fe.Field(), translate(fe))
	}
}

// translate renders a validator failure with the API's wording
func translate(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String && !strings.HasPrefix(fe.Tag(), "decimal")
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "notblank":
		return msgBlank
	case "email":
		return msgInvalidEmail
	case "max":
		if isString {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if isString {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max_bytes":
		return fmt.Sprintf("Ensure this field has no more than %s bytes.", fe.Param())
	case "decimal_gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max_digits":
		return fmt.Sprintf("Ensure that there are no more than %s digits in total.", fe.Param())
	case "decimal_places":
		return fmt.Sprintf("Ensure that there are no more than %s decimal places.", fe.Param())
	case "whole_digits":
		return fmt.Sprintf("Ensure that there are no more than %s digits before the decimal point.", fe.Param())
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}
