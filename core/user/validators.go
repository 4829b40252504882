package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Aarth-Web/ss-backend/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	parentLangTag  = "parentlang"
	parentLangText = "invalid parent language"
)

// RegisterValidators registers the user-specific validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(parentLangTag, parentLangValidation)
	core.RegisterCustomTranslation(validate, translator, parentLangTag, parentLangText)
}

// roleValidation checks that the provided role is one of AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	return ValidRole(fl.Field().String())
}

// parentLangValidation checks that the provided language is supported.
func parentLangValidation(fl validator.FieldLevel) bool {
	return IsLanguage(fl.Field().String())
}
