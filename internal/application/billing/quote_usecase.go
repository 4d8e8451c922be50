package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/appgestion-api/internal/application/dto"
	"github.com/jhoicas/appgestion-api/internal/domain"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
	"github.com/jhoicas/appgestion-api/pkg/logger"
)

// QuoteUseCase casos de uso de presupuestos.
type QuoteUseCase struct {
	txRunner     BillingTxRunner
	quoteRepo    repository.QuoteRepository
	customerRepo repository.CustomerRepository
	materialRepo repository.MaterialRepository
	companyRepo  repository.CompanyRepository
	delivery     *delivery
	log          *logger.Logger
	now          func() time.Time
}

// NewQuoteUseCase construye el caso de uso inyectando todas sus dependencias.
func NewQuoteUseCase(
	txRunner BillingTxRunner,
	quoteRepo repository.QuoteRepository,
	customerRepo repository.CustomerRepository,
	materialRepo repository.MaterialRepository,
	companyRepo repository.CompanyRepository,
	pdf DocumentPDFGenerator,
	mailer Mailer,
	log *logger.Logger,
) *QuoteUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &QuoteUseCase{
		txRunner:     txRunner,
		quoteRepo:    quoteRepo,
		customerRepo: customerRepo,
		materialRepo: materialRepo,
		companyRepo:  companyRepo,
		delivery:     &delivery{pdf: pdf, mailer: mailer},
		log:          log.Component("quotes"),
		now:          time.Now,
	}
}

// Create valida, calcula totales y guarda un presupuesto nuevo.
func (uc *QuoteUseCase) Create(ctx context.Context, userID string, in dto.QuoteRequest) (*dto.QuoteResponse, error) {
	q, err := uc.build(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	q.ID = uuid.New().String()
	q.CreatedAt = now
	q.UpdatedAt = now
	err = uc.txRunner.RunBilling(ctx, func(quoteRepo repository.QuoteRepository, _ repository.InvoiceRepository, _ repository.InvoiceSequenceRepository) error {
		if err := quoteRepo.Create(ctx, q); err != nil {
			return fmt.Errorf("crear presupuesto: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toQuoteResponse(q), nil
}

// Update reemplaza cabecera y líneas de un presupuesto existente en una sola transacción.
func (uc *QuoteUseCase) Update(ctx context.Context, userID, id string, in dto.QuoteRequest) (*dto.QuoteResponse, error) {
	existing, err := uc.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	q, err := uc.build(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	q.ID = existing.ID
	q.CreatedAt = existing.CreatedAt
	q.UpdatedAt = uc.now()
	if in.Status == "" {
		q.Status = existing.Status
	}
	err = uc.txRunner.RunBilling(ctx, func(quoteRepo repository.QuoteRepository, _ repository.InvoiceRepository, _ repository.InvoiceSequenceRepository) error {
		if err := quoteRepo.Update(ctx, q); err != nil {
			return fmt.Errorf("actualizar presupuesto: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toQuoteResponse(q), nil
}

// Get devuelve un presupuesto del usuario.
func (uc *QuoteUseCase) Get(ctx context.Context, userID, id string) (*dto.QuoteResponse, error) {
	q, err := uc.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return toQuoteResponse(q), nil
}

// List presupuestos del usuario, más recientes primero.
func (uc *QuoteUseCase) List(ctx context.Context, userID string) ([]*dto.QuoteResponse, error) {
	list, err := uc.quoteRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listar presupuestos: %w", err)
	}
	out := make([]*dto.QuoteResponse, 0, len(list))
	for _, q := range list {
		out = append(out, toQuoteResponse(q))
	}
	return out, nil
}

// Delete borra el presupuesto. Inexistente y ajeno responden igual.
func (uc *QuoteUseCase) Delete(ctx context.Context, userID, id string) error {
	ok, err := uc.quoteRepo.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("eliminar presupuesto: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// PDF genera el documento del presupuesto.
func (uc *QuoteUseCase) PDF(ctx context.Context, userID, id string) (pdfBytes []byte, filename string, err error) {
	q, customer, company, err := uc.loadForDelivery(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err = uc.delivery.pdf.QuotePDF(ctx, company, customer, q)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, quoteFilename(q), nil
}

// SendEmail envía el PDF del presupuesto al email indicado o, si no, al del cliente.
func (uc *QuoteUseCase) SendEmail(ctx context.Context, userID, id string, in dto.SendEmailRequest) (string, error) {
	if err := dto.Validate(in); err != nil {
		return "", err
	}
	q, customer, company, err := uc.loadForDelivery(ctx, userID, id)
	if err != nil {
		return "", err
	}
	to, err := uc.delivery.recipient(company, customer, in.Email)
	if err != nil {
		return "", err
	}
	pdfBytes, err := uc.delivery.pdf.QuotePDF(ctx, company, customer, q)
	if err != nil {
		return "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	msg := Mail{
		To:             to,
		Subject:        fmt.Sprintf("Presupuesto - %s", customer.Name),
		HTMLBody:       "<p>Adjunto encontrará el presupuesto solicitado.</p><p>Saludos cordiales.</p>",
		AttachmentName: quoteFilename(q),
		Attachment:     pdfBytes,
	}
	if err := uc.delivery.mailer.Send(ctx, company.Mail.WithDefaults(), msg); err != nil {
		return "", fmt.Errorf("email: envío fallido: %w", err)
	}
	uc.log.Info().Str("quote_id", q.ID).Str("to", to).Msg("presupuesto enviado por email")
	return to, nil
}

func (uc *QuoteUseCase) build(ctx context.Context, userID string, in dto.QuoteRequest) (*entity.Quote, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if err := validateGlobalDiscount(in); err != nil {
		return nil, err
	}
	customer, err := ownedCustomer(ctx, uc.customerRepo, in.CustomerID, userID)
	if err != nil {
		return nil, err
	}
	lines, err := resolveLines(ctx, uc.materialRepo, userID, in.Items)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = entity.QuoteStatusPending
	}
	q := &entity.Quote{
		UserID:                userID,
		CustomerID:            customer.ID,
		Status:                status,
		VATEnabled:            boolOr(in.VATEnabled, true),
		GlobalDiscountPercent: in.GlobalDiscountPercent,
		GlobalDiscountFixed:   in.GlobalDiscountFixed,
		DiscountBeforeVAT:     boolOr(in.DiscountBeforeVAT, true),
		CustomerName:          customer.Name,
		CustomerEmail:         customer.Email,
	}
	for _, l := range lines {
		q.Items = append(q.Items, entity.QuoteItem{
			ID:           uuid.New().String(),
			Kind:         l.kind,
			VisibleOnPDF: l.visible,
			LineAmounts:  l.amounts,
		})
	}
	q.Recalculate()
	return q, nil
}

func validateGlobalDiscount(in dto.QuoteRequest) error {
	ve := domain.NewValidationError()
	if in.GlobalDiscountPercent.IsNegative() || in.GlobalDiscountPercent.GreaterThan(hundred) {
		ve.Add("global_discount_percent", "el descuento debe estar entre 0 y 100")
	}
	if in.GlobalDiscountFixed.IsNegative() {
		ve.Add("global_discount_fixed", "el descuento no puede ser negativo")
	}
	return ve.OrNil()
}

func (uc *QuoteUseCase) owned(ctx context.Context, userID, id string) (*entity.Quote, error) {
	q, err := uc.quoteRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("obtener presupuesto: %w", err)
	}
	if q == nil {
		return nil, domain.ErrNotFound
	}
	return q, nil
}

func (uc *QuoteUseCase) loadForDelivery(ctx context.Context, userID, id string) (*entity.Quote, *entity.Customer, *entity.Company, error) {
	q, err := uc.owned(ctx, userID, id)
	if err != nil {
		return nil, nil, nil, err
	}
	customer, err := ownedCustomer(ctx, uc.customerRepo, q.CustomerID, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	company, err := uc.companyRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("obtener empresa: %w", err)
	}
	return q, customer, company, nil
}

func quoteFilename(q *entity.Quote) string {
	return fmt.Sprintf("presupuesto-%s.pdf", q.ID)
}

// delivery piezas comunes de PDF y email de presupuestos y facturas.
type delivery struct {
	pdf    DocumentPDFGenerator
	mailer Mailer
}

// recipient elige destinatario y comprueba que el usuario tiene cuenta de correo.
func (d *delivery) recipient(company *entity.Company, customer *entity.Customer, requested string) (string, error) {
	if company == nil || !company.Mail.Configured() {
		return "", domain.ErrMailNotConfigured
	}
	if to := strings.TrimSpace(requested); to != "" {
		return to, nil
	}
	if to := strings.TrimSpace(customer.Email); to != "" {
		return to, nil
	}
	return "", domain.ErrMissingRecipient
}
