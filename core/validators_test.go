package core

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidate() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	InitValidators(validate, translator)
	return validate, translator
}

func TestRegIDValidation(t *testing.T) {
	validate, translator := newTestValidate()

	type form struct {
		RegID string `json:"registrationId" validate:"regid"`
	}

	tests := []struct {
		name  string
		regID string
		valid bool
	}{
		{name: "uppercase", regID: "ABCD1234", valid: true},
		{name: "lowercase", regID: "abcd1234", valid: true},
		{name: "too short", regID: "ABC123"},
		{name: "too long", regID: "ABCD12345"},
		{name: "punctuation", regID: "ABCD_123"},
		{name: "empty", regID: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(form{RegID: tt.regID})
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			require.Len(t, vErrs, 1)
			assert.Equal(t, "registrationId", vErrs[0].Field())
			assert.Equal(t, "must be an 8 character registration ID", vErrs[0].Translate(translator))
		})
	}
}
