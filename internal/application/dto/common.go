package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"` // errores por campo en validaciones
}

// MessageResponse respuesta simple de confirmación.
type MessageResponse struct {
	Message string `json:"message"`
}

// SendEmailRequest body opcional para los envíos por email.
// Si Email va vacío se usa el email del cliente.
type SendEmailRequest struct {
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}
