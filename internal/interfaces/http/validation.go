package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Nombres de campo según el tag json (o query) en los mensajes.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})
	return v
}

// validateStruct devuelve nil si s es válido, o el cuerpo de error 400 con el detalle por campo.
func validateStruct(s any) *dto.ErrorResponse {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	resp := &dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			resp.Details = append(resp.Details, dto.FieldError{Field: e.Field(), Message: validationMessage(e)})
		}
	}
	return resp
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "campo requerido"
	case "min":
		if e.Kind() == reflect.String {
			return "mínimo " + e.Param() + " caracteres"
		}
		return "mínimo " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "máximo " + e.Param() + " caracteres"
		}
		return "máximo " + e.Param()
	default:
		return "valor inválido"
	}
}
