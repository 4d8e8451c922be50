package billing

import (
	"context"

	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción con los repos de documentos.
// El bloqueo del contador de numeración dura hasta el fin de la transacción.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		quoteRepo repository.QuoteRepository,
		invoiceRepo repository.InvoiceRepository,
		seqRepo repository.InvoiceSequenceRepository,
	) error) error
}

// DocumentPDFGenerator genera la representación PDF de presupuestos y facturas.
type DocumentPDFGenerator interface {
	InvoicePDF(ctx context.Context, company *entity.Company, customer *entity.Customer, inv *entity.Invoice) ([]byte, error)
	QuotePDF(ctx context.Context, company *entity.Company, customer *entity.Customer, q *entity.Quote) ([]byte, error)
}

// Mail mensaje con un adjunto.
type Mail struct {
	To             string
	Subject        string
	HTMLBody       string
	AttachmentName string
	Attachment     []byte
}

// Mailer envía correo con la cuenta SMTP del usuario.
type Mailer interface {
	Send(ctx context.Context, account entity.MailSettings, msg Mail) error
}

// FacturaeExporter construye el XML Facturae de una factura y su huella.
type FacturaeExporter interface {
	Export(company *entity.Company, customer *entity.Customer, inv *entity.Invoice) (xml []byte, digest string, err error)
}
