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

// InvoiceUseCase casos de uso de facturas: alta con numeración, conversión desde
// presupuesto, PDF, email y exportación Facturae.
type InvoiceUseCase struct {
	txRunner     BillingTxRunner
	invoiceRepo  repository.InvoiceRepository
	quoteRepo    repository.QuoteRepository
	customerRepo repository.CustomerRepository
	materialRepo repository.MaterialRepository
	companyRepo  repository.CompanyRepository
	allocator    *SequenceAllocator
	delivery     *delivery
	facturae     FacturaeExporter
	log          *logger.Logger
	now          func() time.Time
}

// InvoiceDeps dependencias de InvoiceUseCase.
type InvoiceDeps struct {
	TxRunner     BillingTxRunner
	InvoiceRepo  repository.InvoiceRepository
	QuoteRepo    repository.QuoteRepository
	CustomerRepo repository.CustomerRepository
	MaterialRepo repository.MaterialRepository
	CompanyRepo  repository.CompanyRepository
	PDF          DocumentPDFGenerator
	Mailer       Mailer
	Facturae     FacturaeExporter
	Logger       *logger.Logger
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(d InvoiceDeps) *InvoiceUseCase {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceUseCase{
		txRunner:     d.TxRunner,
		invoiceRepo:  d.InvoiceRepo,
		quoteRepo:    d.QuoteRepo,
		customerRepo: d.CustomerRepo,
		materialRepo: d.MaterialRepo,
		companyRepo:  d.CompanyRepo,
		allocator:    NewSequenceAllocator(),
		delivery:     &delivery{pdf: d.PDF, mailer: d.Mailer},
		facturae:     d.Facturae,
		log:          log.Component("invoices"),
		now:          time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *InvoiceUseCase) WithClock(now func() time.Time) *InvoiceUseCase {
	uc.now = now
	return uc
}

// Create crea una factura. Sin número explícito se asigna el siguiente de la serie;
// con número, debe estar libre. Si referencia un presupuesto, este pasa a Aceptado.
func (uc *InvoiceUseCase) Create(ctx context.Context, userID string, in dto.InvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}

	// ── 1. Cliente y datos fiscales ───────────────────────────────────────────
	customer, err := ownedCustomer(ctx, uc.customerRepo, in.CustomerID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.billingCompany(ctx, userID, customer); err != nil {
		return nil, err
	}

	// ── 2. Líneas y cabecera ──────────────────────────────────────────────────
	lines, err := resolveLines(ctx, uc.materialRepo, userID, in.Items)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	inv := &entity.Invoice{
		ID:            uuid.New().String(),
		UserID:        userID,
		CustomerID:    customer.ID,
		QuoteID:       strings.TrimSpace(in.QuoteID),
		VATEnabled:    boolOr(in.VATEnabled, true),
		CreatedAt:     now,
		UpdatedAt:     now,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
	}
	if err := applyHeader(inv, in, dayOf(now)); err != nil {
		return nil, err
	}
	inv.Items = invoiceItems(lines)
	inv.Recalculate()

	// ── 3. Numeración y persistencia en una transacción ──────────────────────
	requested := strings.TrimSpace(in.Number)
	err = uc.txRunner.RunBilling(ctx, func(quoteRepo repository.QuoteRepository, invoiceRepo repository.InvoiceRepository, seqRepo repository.InvoiceSequenceRepository) error {
		if inv.QuoteID != "" {
			q, err := quoteRepo.GetByID(ctx, inv.QuoteID, userID)
			if err != nil {
				return fmt.Errorf("obtener presupuesto: %w", err)
			}
			if q == nil {
				return fmt.Errorf("%w: presupuesto %s", domain.ErrNotFound, inv.QuoteID)
			}
		}
		number, err := uc.assignNumber(ctx, seqRepo, invoiceRepo, userID, requested, now)
		if err != nil {
			return err
		}
		inv.Number = number
		if err := invoiceRepo.Create(ctx, inv); err != nil {
			return fmt.Errorf("crear factura: %w", err)
		}
		if inv.QuoteID != "" {
			if err := quoteRepo.SetStatus(ctx, inv.QuoteID, userID, entity.QuoteStatusAccepted); err != nil {
				return fmt.Errorf("aceptar presupuesto: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("number", inv.Number).Msg("factura creada")
	return toInvoiceResponse(inv), nil
}

// CreateFromQuote convierte un presupuesto en factura copiando sus líneas tal cual
// (con su subtotal) y marca el presupuesto como Aceptado.
func (uc *InvoiceUseCase) CreateFromQuote(ctx context.Context, userID, quoteID string) (*dto.InvoiceResponse, error) {
	q, err := uc.quoteRepo.GetByID(ctx, quoteID, userID)
	if err != nil {
		return nil, fmt.Errorf("obtener presupuesto: %w", err)
	}
	if q == nil {
		return nil, domain.ErrNotFound
	}
	customer, err := ownedCustomer(ctx, uc.customerRepo, q.CustomerID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.billingCompany(ctx, userID, customer); err != nil {
		return nil, err
	}

	now := uc.now()
	inv := &entity.Invoice{
		ID:            uuid.New().String(),
		UserID:        userID,
		CustomerID:    customer.ID,
		QuoteID:       q.ID,
		IssueDate:     dayOf(now),
		FiscalRegime:  entity.DefaultFiscalRegime,
		Currency:      entity.DefaultCurrency,
		PaymentMethod: entity.DefaultPaymentMethod,
		PaymentStatus: entity.PaymentStatusUnpaid,
		VATEnabled:    q.VATEnabled,
		CreatedAt:     now,
		UpdatedAt:     now,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
	}
	for _, it := range q.Items {
		inv.Items = append(inv.Items, entity.InvoiceItem{
			ID:           uuid.New().String(),
			Kind:         it.Kind,
			VisibleOnPDF: it.VisibleOnPDF,
			LineAmounts:  it.LineAmounts,
		})
	}
	inv.RecalculateKeepingSubtotals()

	err = uc.txRunner.RunBilling(ctx, func(quoteRepo repository.QuoteRepository, invoiceRepo repository.InvoiceRepository, seqRepo repository.InvoiceSequenceRepository) error {
		number, err := uc.allocator.Next(ctx, seqRepo, invoiceRepo, userID, now)
		if err != nil {
			return err
		}
		inv.Number = number
		if err := invoiceRepo.Create(ctx, inv); err != nil {
			return fmt.Errorf("crear factura: %w", err)
		}
		if err := quoteRepo.SetStatus(ctx, q.ID, userID, entity.QuoteStatusAccepted); err != nil {
			return fmt.Errorf("aceptar presupuesto: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("quote_id", q.ID).Str("number", inv.Number).Msg("factura creada desde presupuesto")
	return toInvoiceResponse(inv), nil
}

// Update reemplaza cabecera y líneas. El número solo cambia si se indica otro libre;
// la fecha de expedición se conserva si no se envía. Un presupuesto indicado queda
// vinculado y pasa a Aceptado; sin él se mantiene el vínculo anterior.
func (uc *InvoiceUseCase) Update(ctx context.Context, userID, id string, in dto.InvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	existing, err := uc.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	customer, err := ownedCustomer(ctx, uc.customerRepo, in.CustomerID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.billingCompany(ctx, userID, customer); err != nil {
		return nil, err
	}
	lines, err := resolveLines(ctx, uc.materialRepo, userID, in.Items)
	if err != nil {
		return nil, err
	}

	quoteID := strings.TrimSpace(in.QuoteID)
	if quoteID == "" {
		quoteID = existing.QuoteID
	}
	inv := &entity.Invoice{
		ID:            existing.ID,
		UserID:        userID,
		CustomerID:    customer.ID,
		QuoteID:       quoteID,
		Number:        existing.Number,
		VATEnabled:    boolOr(in.VATEnabled, true),
		CreatedAt:     existing.CreatedAt,
		UpdatedAt:     uc.now(),
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
	}
	if err := applyHeader(inv, in, existing.IssueDate); err != nil {
		return nil, err
	}
	inv.Items = invoiceItems(lines)
	inv.Recalculate()

	requested := strings.TrimSpace(in.Number)
	relink := inv.QuoteID != "" && inv.QuoteID != existing.QuoteID
	err = uc.txRunner.RunBilling(ctx, func(quoteRepo repository.QuoteRepository, invoiceRepo repository.InvoiceRepository, _ repository.InvoiceSequenceRepository) error {
		if relink {
			q, err := quoteRepo.GetByID(ctx, inv.QuoteID, userID)
			if err != nil {
				return fmt.Errorf("obtener presupuesto: %w", err)
			}
			if q == nil {
				return fmt.Errorf("%w: presupuesto %s", domain.ErrNotFound, inv.QuoteID)
			}
		}
		if requested != "" && requested != existing.Number {
			taken, err := invoiceRepo.NumberExists(ctx, userID, requested)
			if err != nil {
				return fmt.Errorf("comprobar número: %w", err)
			}
			if taken {
				return domain.ErrNumberConflict
			}
			inv.Number = requested
		}
		if err := invoiceRepo.Update(ctx, inv); err != nil {
			return fmt.Errorf("actualizar factura: %w", err)
		}
		if relink {
			if err := quoteRepo.SetStatus(ctx, inv.QuoteID, userID, entity.QuoteStatusAccepted); err != nil {
				return fmt.Errorf("aceptar presupuesto: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// Get devuelve una factura del usuario.
func (uc *InvoiceUseCase) Get(ctx context.Context, userID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// List facturas del usuario, más recientes primero.
func (uc *InvoiceUseCase) List(ctx context.Context, userID string) ([]*dto.InvoiceResponse, error) {
	list, err := uc.invoiceRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listar facturas: %w", err)
	}
	out := make([]*dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, toInvoiceResponse(inv))
	}
	return out, nil
}

// Delete borra la factura. El contador no retrocede.
func (uc *InvoiceUseCase) Delete(ctx context.Context, userID, id string) error {
	ok, err := uc.invoiceRepo.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("eliminar factura: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// PDF genera la representación gráfica de la factura.
func (uc *InvoiceUseCase) PDF(ctx context.Context, userID, id string) (pdfBytes []byte, filename string, err error) {
	inv, customer, company, err := uc.loadForDelivery(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err = uc.delivery.pdf.InvoicePDF(ctx, company, customer, inv)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, invoiceFilename(inv, "pdf"), nil
}

// SendEmail envía el PDF de la factura. Devuelve el destinatario usado.
func (uc *InvoiceUseCase) SendEmail(ctx context.Context, userID, id string, in dto.SendEmailRequest) (string, error) {
	if err := dto.Validate(in); err != nil {
		return "", err
	}
	inv, customer, company, err := uc.loadForDelivery(ctx, userID, id)
	if err != nil {
		return "", err
	}
	to, err := uc.delivery.recipient(company, customer, in.Email)
	if err != nil {
		return "", err
	}
	pdfBytes, err := uc.delivery.pdf.InvoicePDF(ctx, company, customer, inv)
	if err != nil {
		return "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	msg := Mail{
		To:             to,
		Subject:        fmt.Sprintf("Factura %s - %s", inv.Number, customer.Name),
		HTMLBody:       "<p>Adjunto encontrará la factura correspondiente.</p><p>Saludos cordiales.</p>",
		AttachmentName: invoiceFilename(inv, "pdf"),
		Attachment:     pdfBytes,
	}
	if err := uc.delivery.mailer.Send(ctx, company.Mail.WithDefaults(), msg); err != nil {
		return "", fmt.Errorf("email: envío fallido: %w", err)
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("to", to).Msg("factura enviada por email")
	return to, nil
}

// Facturae exporta la factura en XML Facturae con la huella SHA-256 del documento canónico.
func (uc *InvoiceUseCase) Facturae(ctx context.Context, userID, id string) (xml []byte, digest, filename string, err error) {
	inv, customer, _, err := uc.loadForDelivery(ctx, userID, id)
	if err != nil {
		return nil, "", "", err
	}
	company, err := uc.billingCompany(ctx, userID, customer)
	if err != nil {
		return nil, "", "", err
	}
	xml, digest, err = uc.facturae.Export(company, customer, inv)
	if err != nil {
		return nil, "", "", fmt.Errorf("facturae: %w", err)
	}
	return xml, digest, invoiceFilename(inv, "xml"), nil
}

// assignNumber usa el número pedido si está libre o pide el siguiente al contador.
func (uc *InvoiceUseCase) assignNumber(
	ctx context.Context,
	seqRepo repository.InvoiceSequenceRepository,
	invoiceRepo repository.InvoiceRepository,
	userID, requested string,
	now time.Time,
) (string, error) {
	if requested == "" {
		return uc.allocator.Next(ctx, seqRepo, invoiceRepo, userID, now)
	}
	taken, err := invoiceRepo.NumberExists(ctx, userID, requested)
	if err != nil {
		return "", fmt.Errorf("comprobar número: %w", err)
	}
	if taken {
		return "", domain.ErrNumberConflict
	}
	return requested, nil
}

// billingCompany carga la empresa y comprueba los datos mínimos para facturar.
func (uc *InvoiceUseCase) billingCompany(ctx context.Context, userID string, customer *entity.Customer) (*entity.Company, error) {
	company, err := uc.companyRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("obtener empresa: %w", err)
	}
	if err := entity.ValidateForInvoicing(company, customer); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBillingPrecondition, err.Error())
	}
	return company, nil
}

func (uc *InvoiceUseCase) owned(ctx context.Context, userID, id string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (uc *InvoiceUseCase) loadForDelivery(ctx context.Context, userID, id string) (*entity.Invoice, *entity.Customer, *entity.Company, error) {
	inv, err := uc.owned(ctx, userID, id)
	if err != nil {
		return nil, nil, nil, err
	}
	customer, err := ownedCustomer(ctx, uc.customerRepo, inv.CustomerID, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	company, err := uc.companyRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("obtener empresa: %w", err)
	}
	return inv, customer, company, nil
}

// applyHeader copia los campos de cabecera de la petición aplicando valores por defecto.
func applyHeader(inv *entity.Invoice, in dto.InvoiceRequest, defaultIssue time.Time) error {
	issue, err := parseDate("issue_date", in.IssueDate)
	if err != nil {
		return err
	}
	if inv.OperationDate, err = parseDate("operation_date", in.OperationDate); err != nil {
		return err
	}
	if inv.DueDate, err = parseDate("due_date", in.DueDate); err != nil {
		return err
	}
	inv.IssueDate = defaultIssue
	if issue != nil {
		inv.IssueDate = *issue
	}
	if inv.DueDate != nil && inv.DueDate.Before(inv.IssueDate) {
		ve := domain.NewValidationError()
		ve.Add("due_date", "el vencimiento no puede ser anterior a la fecha de expedición")
		return ve
	}
	inv.FiscalRegime = orDefault(in.FiscalRegime, entity.DefaultFiscalRegime)
	inv.PaymentTerms = strings.TrimSpace(in.PaymentTerms)
	inv.Currency = strings.ToUpper(orDefault(in.Currency, entity.DefaultCurrency))
	inv.PaymentMethod = orDefault(in.PaymentMethod, entity.DefaultPaymentMethod)
	inv.PaymentStatus = orDefault(in.PaymentStatus, entity.PaymentStatusUnpaid)
	inv.Notes = strings.TrimSpace(in.Notes)
	return nil
}

func invoiceItems(lines []resolvedLine) []entity.InvoiceItem {
	items := make([]entity.InvoiceItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, entity.InvoiceItem{
			ID:           uuid.New().String(),
			Kind:         l.kind,
			VisibleOnPDF: l.visible,
			LineAmounts:  l.amounts,
		})
	}
	return items
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func invoiceFilename(inv *entity.Invoice, ext string) string {
	return fmt.Sprintf("factura-%s.%s", inv.Number, ext)
}
