package stripe_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsub "github.com/jhoicas/appgestion-api/internal/application/subscription"
	"github.com/jhoicas/appgestion-api/internal/domain"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/stripe"
)

const secret = "whsec_test"

// sign genera la cabecera Stripe-Signature para el payload.
func sign(payload string, at time.Time) string {
	ts := fmt.Sprintf("%d", at.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + payload))
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func event(id, typ, object string) string {
	return `{"id":"` + id + `","object":"event","api_version":"2024-06-20","type":"` + typ + `","data":{"object":` + object + `}}`
}

func TestParse_CheckoutCompleted(t *testing.T) {
	payload := event("evt_1", appsub.EventCheckoutCompleted,
		`{"id":"cs_1","object":"checkout.session","customer":"cus_1","subscription":"sub_1","client_reference_id":"u-ref","metadata":{"usuario_id":"u-1"}}`)

	ev, err := stripe.NewWebhookParser(secret).Parse([]byte(payload), sign(payload, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, appsub.EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "u-1", ev.UserID)
	assert.Equal(t, "cus_1", ev.CustomerID)
	assert.Equal(t, "sub_1", ev.SubscriptionID)
}

func TestParse_SubscriptionUpdated(t *testing.T) {
	payload := event("evt_2", appsub.EventSubscriptionUpdated,
		`{"id":"sub_1","object":"subscription","customer":"cus_1","status":"past_due","current_period_end":1775000000}`)

	ev, err := stripe.NewWebhookParser(secret).Parse([]byte(payload), sign(payload, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "sub_1", ev.SubscriptionID)
	assert.Equal(t, "past_due", ev.Status)
	require.NotNil(t, ev.PeriodEnd)
	assert.Equal(t, int64(1775000000), ev.PeriodEnd.Unix())
}

func TestParse_InvoicePaid(t *testing.T) {
	payload := event("evt_3", appsub.EventInvoicePaid,
		`{"id":"in_1","object":"invoice","customer":"cus_1","subscription":"sub_1"}`)

	ev, err := stripe.NewWebhookParser(secret).Parse([]byte(payload), sign(payload, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "sub_1", ev.SubscriptionID)
	assert.Equal(t, "cus_1", ev.CustomerID)
}

func TestParse_FirmaInvalida(t *testing.T) {
	payload := event("evt_4", appsub.EventInvoicePaid, `{"id":"in_1","object":"invoice"}`)
	parser := stripe.NewWebhookParser(secret)

	_, err := parser.Parse([]byte(payload), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	// payload alterado después de firmar
	header := sign(payload, time.Now())
	_, err = parser.Parse([]byte(payload+" "), header)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	// firma correcta pero fuera de la tolerancia
	_, err = parser.Parse([]byte(payload), sign(payload, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestParse_EventoNoManejado(t *testing.T) {
	payload := event("evt_5", "customer.created", `{"id":"cus_1","object":"customer"}`)

	ev, err := stripe.NewWebhookParser(secret).Parse([]byte(payload), sign(payload, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "customer.created", ev.Type)
	assert.Empty(t, ev.SubscriptionID)
}
