package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

// FieldError campo que no pasó la validación.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

var validate = validator.New()

func init() {
	// digest: 0x + 64 hex (compromiso de 32 bytes).
	_ = validate.RegisterValidation("digest", func(fl validator.FieldLevel) bool {
		_, err := commitment.Parse(fl.Field().String())
		return err == nil
	})
}

// ValidateStruct valida data con sus tags; nil si es válido.
func ValidateStruct(data interface{}) []FieldError {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Tag: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}
