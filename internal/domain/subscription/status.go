// Package subscription modela el ciclo de vida de la suscripción de un usuario:
// prueba gratuita, pago activo, impago y cancelación.
package subscription

import "strings"

// Status estado de la suscripción del usuario.
type Status string

const (
	StatusTrialActive  Status = "TRIAL_ACTIVE"
	StatusTrialExpired Status = "TRIAL_EXPIRED"
	StatusActive       Status = "ACTIVE"
	StatusPastDue      Status = "PAST_DUE"
	StatusCanceled     Status = "CANCELED"
)

// CanWrite indica si el estado permite crear, modificar o borrar datos de negocio.
func (s Status) CanWrite() bool {
	return s == StatusTrialActive || s == StatusActive
}

// IsTrial indica si el estado pertenece al periodo de prueba.
func (s Status) IsTrial() bool {
	return s == StatusTrialActive || s == StatusTrialExpired
}

// FromProvider traduce el estado que informa el proveedor de pagos.
// Cualquier valor no reconocido, incluido el vacío, se considera cancelado.
func FromProvider(providerStatus string) Status {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "active":
		return StatusActive
	case "trialing":
		return StatusTrialActive
	case "past_due":
		return StatusPastDue
	default:
		// canceled, unpaid, incomplete_expired y desconocidos
		return StatusCanceled
	}
}

// ParseStored interpreta el valor guardado en la columna de estado, sin distinguir
// mayúsculas: acepta los estados del modelo actual y los del proveedor ("past_due").
// ok es false cuando la columna está vacía o el valor no se reconoce; esas filas las
// resuelve la migración de arranque.
func ParseStored(raw string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ACTIVE":
		return StatusActive, true
	case "TRIAL_ACTIVE", "TRIALING":
		return StatusTrialActive, true
	case "TRIAL_EXPIRED":
		return StatusTrialExpired, true
	case "PAST_DUE", "PASTDUE":
		return StatusPastDue, true
	case "CANCELED", "CANCELLED", "UNPAID", "INCOMPLETE_EXPIRED":
		return StatusCanceled, true
	default:
		return "", false
	}
}
