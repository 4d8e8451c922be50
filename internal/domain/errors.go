package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrUserNotFound         = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists   = errors.New("ya existe un usuario con ese email")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrUnauthorized         = errors.New("credenciales inválidas")
	ErrForbidden            = errors.New("acceso denegado")
	ErrUserInactive         = errors.New("usuario desactivado")
	ErrNumberConflict       = errors.New("ya existe una factura con ese número")
	ErrBillingPrecondition  = errors.New("datos de facturación incompletos")
	ErrSubscriptionReadOnly = errors.New("suscripción requerida. Activa tu suscripción para acceder")
	ErrNoBillingAccount     = errors.New("no tienes una suscripción activa para gestionar")
	ErrMailNotConfigured    = errors.New("configure la cuenta de correo de la empresa antes de enviar documentos")
	ErrMissingRecipient     = errors.New("el cliente no tiene email registrado. Indique un email en el request")
	ErrInvalidSignature     = errors.New("firma del webhook inválida")
)

// ValidationError agrupa errores por campo; se compara como ErrInvalidInput.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError construye un error vacío listo para acumular campos.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Add registra el mensaje de un campo.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = msg
}

// OrNil devuelve nil si no hay campos con error.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	return ErrInvalidInput.Error()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
