package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/appgestion-api/internal/application/auth"
	"github.com/jhoicas/appgestion-api/internal/application/billing"
	"github.com/jhoicas/appgestion-api/internal/application/dto"
	appsub "github.com/jhoicas/appgestion-api/internal/application/subscription"
	"github.com/jhoicas/appgestion-api/internal/application/usecase"
	"github.com/jhoicas/appgestion-api/internal/domain"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/subscription"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/facturae"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/memory"
	"github.com/jhoicas/appgestion-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/appgestion-api/internal/interfaces/http"
	"github.com/jhoicas/appgestion-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Aplicación completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

type recordingMailer struct {
	sent []billing.Mail
}

func (m *recordingMailer) Send(_ context.Context, _ entity.MailSettings, msg billing.Mail) error {
	m.sent = append(m.sent, msg)
	return nil
}

// rejectingParser rechaza cualquier firma.
type rejectingParser struct{}

func (rejectingParser) Parse([]byte, string) (*appsub.WebhookEvent, error) {
	return nil, domain.ErrInvalidSignature
}

type testServer struct {
	app    *fiber.App
	store  *memory.Store
	mailer *recordingMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	mailer := &recordingMailer{}
	log := logger.Nop()
	pdfGen := pdf.NewMarotoPDFGenerator()

	deps := apphttp.RouterDeps{
		AuthUC:     auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}, log),
		UserUC:     usecase.NewUserUseCase(store.Users()),
		CompanyUC:  usecase.NewCompanyUseCase(store.Companies()),
		CustomerUC: billing.NewCustomerUseCase(store.Customers()),
		MaterialUC: billing.NewMaterialUseCase(store.Materials()),
		QuoteUC: billing.NewQuoteUseCase(store, store.Quotes(), store.Customers(), store.Materials(), store.Companies(),
			pdfGen, mailer, log),
		InvoiceUC: billing.NewInvoiceUseCase(billing.InvoiceDeps{
			TxRunner:     store,
			InvoiceRepo:  store.Invoices(),
			QuoteRepo:    store.Quotes(),
			CustomerRepo: store.Customers(),
			MaterialRepo: store.Materials(),
			CompanyRepo:  store.Companies(),
			PDF:          pdfGen,
			Mailer:       mailer,
			Facturae:     facturae.NewExporter(),
			Logger:       log,
		}),
		Subscription: appsub.NewService(store.Users(), store, nil, rejectingParser{}, log),
		JWTSecret:    testJWTSecret,
	}
	app := fiber.New()
	apphttp.Router(app, deps)
	return &testServer{app: app, store: store, mailer: mailer}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// register crea un usuario nuevo (con prueba activa) y devuelve el header Authorization.
func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/auth/register", "", dto.RegisterRequest{Name: "Ana", Email: email, Password: "secreto1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[dto.AuthResponse](t, resp)
	assert.Equal(t, string(subscription.StatusTrialActive), out.SubscriptionStatus)
	return "Bearer " + out.Token
}

var testCompany = dto.CompanyRequest{
	Name: "Reformas Sur SL", Address: "C/ Sierpes 1", PostalCode: "41001", Province: "Sevilla",
	Country: "España", NIF: "B12345674", Email: "info@reformassur.es",
}

var testCustomer = dto.CustomerRequest{
	Name: "Ana Pérez", Email: "ana.perez@example.com", Address: "C/ Mayor 3",
	PostalCode: "28001", Province: "Madrid", Country: "España", TaxID: "12345678Z",
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_PresupuestoAFactura(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ana@example.com")

	resp := s.do(t, http.MethodPut, "/config/empresa", token, testCompany)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/clientes", token, testCustomer)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	customer := decode[dto.CustomerResponse](t, resp)

	quoteReq := map[string]any{
		"customer_id": customer.ID,
		"items": []map[string]any{
			{"manual_task": "Alicatado baño", "quantity": "10", "unit_price": "5"},
			{"manual_task": "Material de agarre", "quantity": "1", "unit_price": "20", "discount_percent": "10"},
		},
	}
	resp = s.do(t, http.MethodPost, "/presupuestos", token, quoteReq)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	quote := decode[dto.QuoteResponse](t, resp)
	assert.Equal(t, "Pendiente", quote.Status)
	assert.Equal(t, "82.28", quote.Total.StringFixed(2))

	resp = s.do(t, http.MethodGet, "/presupuestos/"+quote.ID+"/pdf", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	pdfBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, bytes.HasPrefix(pdfBody, []byte("%PDF")))

	resp = s.do(t, http.MethodPost, "/facturas/desde-presupuesto/"+quote.ID, token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	invoice := decode[dto.InvoiceResponse](t, resp)
	assert.Regexp(t, `^FAC-\d{4}-0001$`, invoice.Number)
	assert.Equal(t, quote.Total.StringFixed(2), invoice.Total.StringFixed(2))

	resp = s.do(t, http.MethodGet, "/presupuestos/"+quote.ID, token, nil)
	assert.Equal(t, "Aceptado", decode[dto.QuoteResponse](t, resp).Status)

	resp = s.do(t, http.MethodGet, "/facturas/"+invoice.ID+"/facturae", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Header.Get(apphttp.HeaderDocumentDigest), 64)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xml")
	xmlBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(xmlBody), "<InvoiceNumber>0001</InvoiceNumber>")

	resp = s.do(t, http.MethodPost, "/facturas/"+invoice.ID+"/enviar-email", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "sin cuenta SMTP no se envía")
	assert.Equal(t, "MAIL_NOT_CONFIGURED", decode[dto.ErrorResponse](t, resp).Code)
}

func TestRouter_EnviarPresupuestoPorEmail(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ana@example.com")

	company := testCompany
	company.MailUsername = "info@reformassur.es"
	company.MailPassword = "app-password"
	resp := s.do(t, http.MethodPut, "/config/empresa", token, company)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.CompanyResponse](t, resp).MailConfigured)

	resp = s.do(t, http.MethodPost, "/clientes", token, testCustomer)
	customer := decode[dto.CustomerResponse](t, resp)
	resp = s.do(t, http.MethodPost, "/presupuestos", token, map[string]any{
		"customer_id": customer.ID,
		"items":       []map[string]any{{"manual_task": "Pintura", "quantity": "1", "unit_price": "100"}},
	})
	quote := decode[dto.QuoteResponse](t, resp)

	resp = s.do(t, http.MethodPost, "/presupuestos/"+quote.ID+"/enviar-email", token, dto.SendEmailRequest{Email: "otra@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[dto.MessageResponse](t, resp).Message, "otra@example.com")

	require.Len(t, s.mailer.sent, 1)
	assert.Equal(t, "otra@example.com", s.mailer.sent[0].To)
	assert.True(t, bytes.HasPrefix(s.mailer.sent[0].Attachment, []byte("%PDF")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Errores y filtro de suscripción
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_Validacion_DevuelveCampos(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ana@example.com")

	resp := s.do(t, http.MethodPost, "/clientes", token, dto.CustomerRequest{Email: "no-es-email"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.NotEmpty(t, body.Fields)
}

func TestRouter_RecursoDeOtroUsuario_Retorna404(t *testing.T) {
	s := newTestServer(t)
	ana := s.register(t, "ana@example.com")
	luis := s.register(t, "luis@example.com")

	resp := s.do(t, http.MethodPost, "/clientes", ana, testCustomer)
	customer := decode[dto.CustomerResponse](t, resp)

	resp = s.do(t, http.MethodGet, "/clientes/"+customer.ID, luis, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_EmailDuplicado_Retorna409(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ana@example.com")

	resp := s.do(t, http.MethodPost, "/auth/register", "", dto.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secreto1"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRouter_PruebaVencida_SoloLectura(t *testing.T) {
	s := newTestServer(t)
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 14)
	s.store.PutUser(entity.User{
		ID: testUserID, Name: "Ana", Email: testEmail, Role: entity.RoleUser, Active: true,
		Subscription: subscription.Account{Status: subscription.StatusTrialExpired, TrialStart: &start, TrialEnd: &end},
	})
	token := tokenForRole(t, entity.RoleUser)

	resp := s.do(t, http.MethodGet, "/clientes", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/clientes", token, testCustomer)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "SUBSCRIPTION_REQUIRED", decode[dto.ErrorResponse](t, resp).Code)

	resp = s.do(t, http.MethodGet, "/subscription", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[dto.SubscriptionResponse](t, resp)
	assert.Equal(t, string(subscription.StatusTrialExpired), status.Status)
	assert.False(t, status.CanWrite)

	// sin cliente en el proveedor no hay portal; el filtro no bloquea la ruta
	resp = s.do(t, http.MethodPost, "/subscription/portal", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "NO_BILLING_ACCOUNT", decode[dto.ErrorResponse](t, resp).Code)
}

func TestRouter_WebhookFirmaInvalida_Retorna400(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", bytes.NewReader([]byte(`{"id":"evt_1"}`)))
	req.Header.Set(apphttp.HeaderStripeSignature, "t=1,v1=deadbeef")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_SIGNATURE", decode[dto.ErrorResponse](t, resp).Code)
}

func TestRouter_BarridoSoloAdmin(t *testing.T) {
	s := newTestServer(t)
	s.store.PutUser(entity.User{ID: testUserID, Email: testEmail, Role: entity.RoleUser, Active: true,
		Subscription: subscription.NewTrial(time.Now())})

	resp := s.do(t, http.MethodPost, "/admin/subscriptions/sweep", tokenForRole(t, entity.RoleUser), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/admin/subscriptions/sweep", tokenForRole(t, entity.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decode[dto.SweepResponse](t, resp).Expired)
}

func TestRouter_SinToken_Retorna401(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/facturas", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_RutaDesconocida_Retorna404(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/no-existe", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "fuera de los prefijos de negocio no se pide token")
}

func TestRouter_FacturarDesdeRutaDePresupuesto(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "luis@example.com")

	resp := s.do(t, http.MethodPut, "/config/empresa", token, testCompany)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = s.do(t, http.MethodPost, "/clientes", token, testCustomer)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	customer := decode[dto.CustomerResponse](t, resp)

	resp = s.do(t, http.MethodPost, "/presupuestos", token, map[string]any{
		"customer_id": customer.ID,
		"items":       []map[string]any{{"manual_task": "Pintura", "quantity": "2", "unit_price": "50"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	quote := decode[dto.QuoteResponse](t, resp)

	resp = s.do(t, http.MethodPost, "/presupuestos/"+quote.ID+"/factura", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	invoice := decode[dto.InvoiceResponse](t, resp)
	assert.Equal(t, quote.ID, invoice.QuoteID)
	assert.Equal(t, "121.00", invoice.Total.StringFixed(2))

	resp = s.do(t, http.MethodPost, "/presupuestos/"+quote.ID+"/factura", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
