package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/appgestion-api/internal/domain/numbering"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
)

// SequenceAllocator asigna el siguiente número de factura de un usuario.
// Debe llamarse dentro de RunBilling: la fila del contador queda bloqueada
// hasta que la transacción que guarda la factura termina.
type SequenceAllocator struct {
	Series string
}

// NewSequenceAllocator usa la serie por defecto (FAC).
func NewSequenceAllocator() *SequenceAllocator {
	return &SequenceAllocator{Series: numbering.DefaultSeries}
}

// Next devuelve el número siguiente para el año de now.
func (a *SequenceAllocator) Next(
	ctx context.Context,
	seqRepo repository.InvoiceSequenceRepository,
	invoiceRepo repository.InvoiceRepository,
	userID string,
	now time.Time,
) (string, error) {
	year := now.Year()

	counter, err := seqRepo.LockByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("numeración: bloquear contador: %w", err)
	}
	if counter == nil {
		// Primer uso: se parte del mayor número ya emitido este año (facturas anteriores al contador).
		last, err := invoiceRepo.MaxNumberWithPrefix(ctx, userID, numbering.YearPrefix(a.series(), year))
		if err != nil {
			return "", fmt.Errorf("numeración: último número emitido: %w", err)
		}
		seed := &numbering.Counter{UserID: userID, Series: a.series(), Year: year, LastNumber: last}
		if err := seqRepo.InsertIfAbsent(ctx, seed); err != nil {
			return "", fmt.Errorf("numeración: crear contador: %w", err)
		}
		// otra transacción pudo crearlo primero; se vuelve a leer bloqueando
		counter, err = seqRepo.LockByUser(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("numeración: bloquear contador: %w", err)
		}
		if counter == nil {
			return "", fmt.Errorf("numeración: contador de %s no disponible", userID)
		}
	}

	number := counter.Next(year)
	if err := seqRepo.Save(ctx, counter); err != nil {
		return "", fmt.Errorf("numeración: guardar contador: %w", err)
	}
	return number, nil
}

func (a *SequenceAllocator) series() string {
	if a.Series == "" {
		return numbering.DefaultSeries
	}
	return a.Series
}
