package helper

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var (
	gpaMin = decimal.Zero
	gpaMax = decimal.NewFromInt(5)
)

// NewValidator returns a validator that reports JSON field names and knows
// the "gpa" tag: a decimal in [0,5] with at most two decimals.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("gpa", validGPA)
	return v
}

func validGPA(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	if d.LessThan(gpaMin) || d.GreaterThan(gpaMax) {
		return false
	}
	return d.Equal(d.Truncate(2))
}

var tagMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"gpa":      "must be between 0.00 and 5.00 with at most 2 decimals",
	"uuid":     "must be a valid UUID",
	"oneof":    "must be one of: ",
}

// ValidationError renders validator errors as 422 with per-field messages.
func ValidationError(c *fiber.Ctx, err error) error {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return JsonError(c, fiber.StatusBadRequest, "invalid input")
	}
	fields := make(map[string][]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return JsonValidationError(c, fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return tagMessages["oneof"] + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	if m, ok := tagMessages[fe.Tag()]; ok {
		return m
	}
	return "failed " + fe.Tag()
}
