package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Available stock disponible cuando Code = INSUFFICIENT_STOCK.
	Available *string      `json:"available,omitempty"`
	Details   []FieldError `json:"details,omitempty"`
}

// FieldError detalle de validación por campo.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
