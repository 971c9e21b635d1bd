package validator

import (
	"regexp"

	"serchadmin/internal/model"

	"github.com/go-playground/validator/v10"
)

var scopeKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// Custom validators
	v.RegisterValidation("permission", validatePermission)
	v.RegisterValidation("scope_key", validateScopeKey)
	v.RegisterValidation("role", validateRole)

	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func validatePermission(fl validator.FieldLevel) bool {
	return model.Permission(fl.Field().String()).Valid()
}

func validateScopeKey(fl validator.FieldLevel) bool {
	return scopeKeyPattern.MatchString(fl.Field().String())
}

func validateRole(fl validator.FieldLevel) bool {
	return model.Role(fl.Field().String()).Valid()
}
