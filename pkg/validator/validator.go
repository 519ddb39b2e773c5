package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sangkips/posync/internal/domain/enum"
	"github.com/sangkips/posync/pkg/apperror"
	"github.com/sangkips/posync/pkg/utils"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// ids the server accepts
	validate.RegisterValidation("syncid", func(fl validator.FieldLevel) bool {
		return utils.IsValidUUIDv4(fl.Field().String())
	})
	validate.RegisterValidation("document_type", func(fl validator.FieldLevel) bool {
		return enum.DocumentType(fl.Field().String()).IsValid()
	})
	validate.RegisterValidation("sale_status", func(fl validator.FieldLevel) bool {
		return enum.SaleStatus(fl.Field().String()).IsValid()
	})
	validate.RegisterValidation("transaction_kind", func(fl validator.FieldLevel) bool {
		return enum.TransactionKind(fl.Field().String()).IsValid()
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "", Tag: "invalid", Value: err.Error()}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Validate checks data and returns a 422 AppError listing every failed field
func Validate(data interface{}) error {
	failed := ValidateStruct(data)
	if len(failed) == 0 {
		return nil
	}
	fields := make([]apperror.FieldError, 0, len(failed))
	for _, f := range failed {
		fields = append(fields, apperror.FieldError{Field: fieldName(f.FailedField), Message: message(f)})
	}
	return apperror.NewValidationError(fields)
}

// fieldName drops the struct name from a namespace like "SaleRequest.Items[0].Quantity"
func fieldName(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(f *ErrorResponse) string {
	switch f.Tag {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + f.Value
	case "max", "lte":
		return "must be at most " + f.Value
	case "syncid":
		return "must be a version 4 UUID"
	case "document_type", "sale_status", "transaction_kind", "oneof":
		return "has an unsupported value"
	default:
		return "failed " + f.Tag + " validation"
	}
}
