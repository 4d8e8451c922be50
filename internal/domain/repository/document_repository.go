package repository

import (
	"context"

	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/numbering"
)

// QuoteRepository persistencia de presupuestos con sus líneas.
type QuoteRepository interface {
	Create(ctx context.Context, quote *entity.Quote) error
	// Update sobrescribe la cabecera y reemplaza todas las líneas.
	Update(ctx context.Context, quote *entity.Quote) error
	GetByID(ctx context.Context, id, userID string) (*entity.Quote, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Quote, error)
	SetStatus(ctx context.Context, id, userID, status string) error
	Delete(ctx context.Context, id, userID string) (bool, error)
}

// InvoiceRepository persistencia de facturas con sus líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	// Update sobrescribe la cabecera y reemplaza todas las líneas.
	Update(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id, userID string) (*entity.Invoice, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Invoice, error)
	Delete(ctx context.Context, id, userID string) (bool, error)
	NumberExists(ctx context.Context, userID, number string) (bool, error)
	// MaxNumberWithPrefix mayor correlativo final entre los números que empiezan por prefix.
	MaxNumberWithPrefix(ctx context.Context, userID, prefix string) (int, error)
}

// InvoiceSequenceRepository contador de numeración por usuario.
type InvoiceSequenceRepository interface {
	// LockByUser bloquea la fila del usuario hasta el fin de la transacción; nil si no existe.
	LockByUser(ctx context.Context, userID string) (*numbering.Counter, error)
	// InsertIfAbsent crea el contador si nadie lo creó antes (no falla si ya existe).
	InsertIfAbsent(ctx context.Context, counter *numbering.Counter) error
	Save(ctx context.Context, counter *numbering.Counter) error
}
