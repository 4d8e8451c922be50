package subscription

import (
	"strings"
	"time"
)

// TrialDays duración de la prueba gratuita.
const TrialDays = 14

// Account sub-registro de suscripción de un usuario.
type Account struct {
	Status           Status
	CustomerID       string // cliente en el proveedor de pagos
	SubscriptionID   string // suscripción en el proveedor de pagos
	CurrentPeriodEnd *time.Time
	TrialStart       *time.Time
	TrialEnd         *time.Time
}

// Day fecha de calendario (medianoche UTC) del instante t. Todas las fechas de
// prueba se comparan en UTC, igual que las columnas DATE leídas de la base.
func Day(t time.Time) time.Time {
	return calendarDate(t.UTC())
}

// calendarDate conserva año, mes y día de una fecha guardada, sin convertir de zona.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewTrial abre la prueba de un usuario recién registrado.
func NewTrial(now time.Time) Account {
	start := Day(now)
	end := start.AddDate(0, 0, TrialDays)
	return Account{Status: StatusTrialActive, TrialStart: &start, TrialEnd: &end}
}

// CanWrite indica si el usuario puede modificar datos de negocio.
func (a Account) CanWrite() bool {
	return a.Status.CanWrite()
}

// TrialOverdue indica si la prueba sigue activa pero ya pasó su último día.
func (a Account) TrialOverdue(now time.Time) bool {
	if a.Status != StatusTrialActive || a.TrialEnd == nil {
		return false
	}
	return Day(now).After(calendarDate(*a.TrialEnd))
}

// ExpireIfDue pasa la prueba a TRIAL_EXPIRED cuando ya venció. Devuelve true si cambió.
func (a *Account) ExpireIfDue(now time.Time) bool {
	if !a.TrialOverdue(now) {
		return false
	}
	a.Status = StatusTrialExpired
	return true
}

// TrialDaysLeft días restantes de prueba (0 si no aplica o ya venció).
func (a Account) TrialDaysLeft(now time.Time) int {
	if a.Status != StatusTrialActive || a.TrialEnd == nil {
		return 0
	}
	left := int(calendarDate(*a.TrialEnd).Sub(Day(now)).Hours() / 24)
	if left < 0 {
		return 0
	}
	return left
}

// Activate registra una suscripción recién contratada (checkout completado).
func (a *Account) Activate(customerID, subscriptionID, providerStatus string, periodEnd *time.Time) {
	if customerID != "" {
		a.CustomerID = customerID
	}
	a.SubscriptionID = subscriptionID
	a.Status = FromProvider(providerStatus)
	a.CurrentPeriodEnd = periodEnd
}

// Sync sobrescribe estado y fin de periodo con lo que informa el proveedor.
func (a *Account) Sync(providerStatus string, periodEnd *time.Time) {
	a.Status = FromProvider(providerStatus)
	a.CurrentPeriodEnd = periodEnd
}

// Cancel fuerza la cancelación y desvincula la suscripción del proveedor.
func (a *Account) Cancel() {
	a.Status = StatusCanceled
	a.SubscriptionID = ""
}

// MarkPaid se aplica cuando el proveedor confirma el cobro de una factura.
func (a *Account) MarkPaid() {
	a.Status = StatusActive
}

// MarkPaymentFailed se aplica cuando falla el cobro de una factura.
func (a *Account) MarkPaymentFailed() {
	a.Status = StatusPastDue
}

// Backfill normaliza un registro previo al modelo de suscripción actual.
// raw es el valor tal cual está guardado en la columna de estado.
// Devuelve la cuenta resultante y si hubo que modificarla.
//
// Reglas:
//   - estado reconocido (sin distinguir mayúsculas, "past_due", "trialing"...): se
//     conserva en su forma canónica junto con sus fechas.
//   - estado vacío o irreconocible: prueba de 14 días que termina hoy y TRIAL_EXPIRED.
//   - cuenta sin fechas de prueba: se rellenan con la misma ventana.
func Backfill(raw string, a Account, now time.Time) (Account, bool) {
	today := Day(now)
	trialStart := today.AddDate(0, 0, -TrialDays)
	changed := false

	if status, ok := ParseStored(raw); ok {
		a.Status = status
		changed = strings.TrimSpace(raw) != string(status)
	} else {
		a.Status = StatusTrialExpired
		a.TrialStart, a.TrialEnd = &trialStart, &today
		changed = true
	}

	if a.TrialStart == nil || a.TrialEnd == nil {
		a.TrialStart, a.TrialEnd = &trialStart, &today
		changed = true
	}
	return a, changed
}
