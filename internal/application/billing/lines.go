package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/appgestion-api/internal/application/dto"
	"github.com/jhoicas/appgestion-api/internal/domain"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/repository"
)

const dateLayout = "2006-01-02"

var (
	minQuantity = decimal.RequireFromString("0.0001")
	hundred     = decimal.NewFromInt(100)
)

// resolvedLine línea validada lista para copiarse a un QuoteItem o InvoiceItem.
type resolvedLine struct {
	kind    entity.LineKind
	visible bool
	amounts entity.LineAmounts
}

// resolveLines valida las líneas de la petición y resuelve los materiales del usuario.
// Una línea con material y sin precio toma el precio del catálogo.
func resolveLines(ctx context.Context, materials repository.MaterialRepository, userID string, items []dto.LineItemRequest) ([]resolvedLine, error) {
	ve := domain.NewValidationError()
	for i, it := range items {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }
		hasMaterial := strings.TrimSpace(it.MaterialID) != ""
		hasTask := strings.TrimSpace(it.ManualTask) != ""
		switch {
		case hasMaterial && hasTask:
			ve.Add(field("material_id"), "indique material o tarea manual, no ambos")
		case !hasMaterial && !hasTask:
			ve.Add(field("material_id"), "indique un material o una tarea manual")
		}
		if it.Quantity.LessThan(minQuantity) {
			ve.Add(field("quantity"), "la cantidad debe ser mayor que 0")
		}
		if it.UnitPrice.IsNegative() {
			ve.Add(field("unit_price"), "el precio no puede ser negativo")
		}
		if it.DiscountPercent.IsNegative() || it.DiscountPercent.GreaterThan(hundred) {
			ve.Add(field("discount_percent"), "el descuento debe estar entre 0 y 100")
		}
		if it.DiscountFixed.IsNegative() {
			ve.Add(field("discount_fixed"), "el descuento no puede ser negativo")
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	out := make([]resolvedLine, 0, len(items))
	for _, it := range items {
		line := resolvedLine{
			visible: boolOr(it.VisibleOnPDF, true),
			amounts: entity.LineAmounts{
				Quantity:        it.Quantity,
				UnitPrice:       it.UnitPrice,
				DiscountPercent: it.DiscountPercent,
				DiscountFixed:   it.DiscountFixed,
				VATApplicable:   boolOr(it.VATApplicable, true),
			},
		}
		if id := strings.TrimSpace(it.MaterialID); id != "" {
			m, err := materials.GetByID(ctx, id, userID)
			if err != nil {
				return nil, fmt.Errorf("obtener material: %w", err)
			}
			if m == nil {
				return nil, fmt.Errorf("%w: material %s", domain.ErrNotFound, id)
			}
			if line.amounts.UnitPrice.IsZero() {
				line.amounts.UnitPrice = m.UnitPrice
			}
			line.kind = entity.MaterialLine{MaterialID: m.ID, Name: m.Name}
		} else {
			line.kind = entity.ManualTask{Text: strings.TrimSpace(it.ManualTask)}
		}
		out = append(out, line)
	}
	return out, nil
}

// ownedCustomer devuelve el cliente si existe y pertenece al usuario.
func ownedCustomer(ctx context.Context, customers repository.CustomerRepository, id, userID string) (*entity.Customer, error) {
	c, err := customers.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, id)
	}
	return c, nil
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func parseDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		ve := domain.NewValidationError()
		ve.Add(field, "fecha inválida (formato AAAA-MM-DD)")
		return nil, ve
	}
	return &t, nil
}

// dayOf fecha de calendario de t (medianoche UTC).
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func lineResponse(id string, kind entity.LineKind, visible bool, a entity.LineAmounts) dto.LineItemResponse {
	r := dto.LineItemResponse{
		ID:              id,
		Description:     kind.Description(),
		Quantity:        a.Quantity,
		UnitPrice:       a.UnitPrice,
		DiscountPercent: a.DiscountPercent,
		DiscountFixed:   a.DiscountFixed,
		VATApplicable:   a.VATApplicable,
		VisibleOnPDF:    visible,
		Subtotal:        a.Subtotal,
	}
	switch k := kind.(type) {
	case entity.MaterialLine:
		r.MaterialID = k.MaterialID
	case entity.ManualTask:
		r.ManualTask = k.Text
	}
	return r
}

func toQuoteResponse(q *entity.Quote) *dto.QuoteResponse {
	items := make([]dto.LineItemResponse, 0, len(q.Items))
	for _, it := range q.Items {
		items = append(items, lineResponse(it.ID, it.Kind, it.VisibleOnPDF, it.LineAmounts))
	}
	return &dto.QuoteResponse{
		ID:                    q.ID,
		CustomerID:            q.CustomerID,
		CustomerName:          q.CustomerName,
		Status:                q.Status,
		VATEnabled:            q.VATEnabled,
		GlobalDiscountPercent: q.GlobalDiscountPercent,
		GlobalDiscountFixed:   q.GlobalDiscountFixed,
		DiscountBeforeVAT:     q.DiscountBeforeVAT,
		Subtotal:              q.Subtotal,
		VAT:                   q.VAT,
		Total:                 q.Total,
		Items:                 items,
		CreatedAt:             q.CreatedAt,
	}
}

func toInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	items := make([]dto.LineItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		r := lineResponse(it.ID, it.Kind, it.VisibleOnPDF, it.LineAmounts)
		share := it.VATShare
		r.VATShare = &share
		items = append(items, r)
	}
	return &dto.InvoiceResponse{
		ID:            inv.ID,
		Number:        inv.Number,
		CustomerID:    inv.CustomerID,
		CustomerName:  inv.CustomerName,
		QuoteID:       inv.QuoteID,
		IssueDate:     formatDate(&inv.IssueDate),
		OperationDate: formatDate(inv.OperationDate),
		DueDate:       formatDate(inv.DueDate),
		FiscalRegime:  inv.FiscalRegime,
		PaymentTerms:  inv.PaymentTerms,
		Currency:      inv.Currency,
		PaymentMethod: inv.PaymentMethod,
		PaymentStatus: inv.PaymentStatus,
		Notes:         inv.Notes,
		VATEnabled:    inv.VATEnabled,
		Subtotal:      inv.Subtotal,
		VAT:           inv.VAT,
		Total:         inv.Total,
		Items:         items,
		CreatedAt:     inv.CreatedAt,
	}
}
