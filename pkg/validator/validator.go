// Package validator wraps go-playground/validator for the request DTOs in
// the service layer. Ledger requests reference contacts by UUID, so a
// uuid_required rule rejects the zero UUID that a missing JSON field
// unmarshals to.
package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrorResponse describes a single failed field, in a shape the handlers
// can surface to the client.
type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})
}

// ValidateStruct runs the struct's validate tags and collects every failure.
func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}
