package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemRequest línea de presupuesto o factura. Debe indicar material_id o
// manual_task, nunca ambos.
type LineItemRequest struct {
	MaterialID      string          `json:"material_id,omitempty" validate:"omitempty,uuid"`
	ManualTask      string          `json:"manual_task,omitempty" validate:"max=500"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountFixed   decimal.Decimal `json:"discount_fixed"`
	VATApplicable   *bool           `json:"vat_applicable,omitempty"` // por defecto true
	VisibleOnPDF    *bool           `json:"visible_on_pdf,omitempty"` // por defecto true
}

// LineItemResponse línea con su descripción resuelta.
type LineItemResponse struct {
	ID              string           `json:"id"`
	MaterialID      string           `json:"material_id,omitempty"`
	ManualTask      string           `json:"manual_task,omitempty"`
	Description     string           `json:"description"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	DiscountFixed   decimal.Decimal  `json:"discount_fixed"`
	VATApplicable   bool             `json:"vat_applicable"`
	VisibleOnPDF    bool             `json:"visible_on_pdf"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	VATShare        *decimal.Decimal `json:"vat_share,omitempty"` // solo facturas
}

// QuoteRequest body para POST/PUT /presupuestos.
type QuoteRequest struct {
	CustomerID            string            `json:"customer_id" validate:"required,uuid"`
	Items                 []LineItemRequest `json:"items" validate:"min=1,dive"`
	VATEnabled            *bool             `json:"vat_enabled,omitempty"` // por defecto true
	Status                string            `json:"status,omitempty" validate:"omitempty,oneof=Pendiente Aceptado Rechazado"`      // por defecto Pendiente
	GlobalDiscountPercent decimal.Decimal   `json:"global_discount_percent"`
	GlobalDiscountFixed   decimal.Decimal   `json:"global_discount_fixed"`
	DiscountBeforeVAT     *bool             `json:"discount_before_vat,omitempty"` // por defecto true
}

// QuoteResponse presupuesto completo.
type QuoteResponse struct {
	ID                    string             `json:"id"`
	CustomerID            string             `json:"customer_id"`
	CustomerName          string             `json:"customer_name"`
	Status                string             `json:"status"`
	VATEnabled            bool               `json:"vat_enabled"`
	GlobalDiscountPercent decimal.Decimal    `json:"global_discount_percent"`
	GlobalDiscountFixed   decimal.Decimal    `json:"global_discount_fixed"`
	DiscountBeforeVAT     bool               `json:"discount_before_vat"`
	Subtotal              decimal.Decimal    `json:"subtotal"`
	VAT                   decimal.Decimal    `json:"vat"`
	Total                 decimal.Decimal    `json:"total"`
	Items                 []LineItemResponse `json:"items"`
	CreatedAt             time.Time          `json:"created_at"`
}

// InvoiceRequest body para POST/PUT /facturas. Fechas en formato YYYY-MM-DD.
type InvoiceRequest struct {
	CustomerID    string            `json:"customer_id" validate:"required,uuid"`
	QuoteID       string            `json:"quote_id,omitempty" validate:"omitempty,uuid"`
	Number        string            `json:"number,omitempty" validate:"max=40"` // vacío: se asigna el siguiente correlativo
	Items         []LineItemRequest `json:"items" validate:"min=1,dive"`
	VATEnabled    *bool             `json:"vat_enabled,omitempty"`
	IssueDate     string            `json:"issue_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	OperationDate string            `json:"operation_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate       string            `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	FiscalRegime  string            `json:"fiscal_regime,omitempty"`
	PaymentTerms  string            `json:"payment_terms,omitempty"`
	Currency      string            `json:"currency,omitempty" validate:"omitempty,len=3"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	PaymentStatus string            `json:"payment_status,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}

// InvoiceResponse factura completa.
type InvoiceResponse struct {
	ID            string             `json:"id"`
	Number        string             `json:"number"`
	CustomerID    string             `json:"customer_id"`
	CustomerName  string             `json:"customer_name"`
	QuoteID       string             `json:"quote_id,omitempty"`
	IssueDate     string             `json:"issue_date"`
	OperationDate string             `json:"operation_date,omitempty"`
	DueDate       string             `json:"due_date,omitempty"`
	FiscalRegime  string             `json:"fiscal_regime"`
	PaymentTerms  string             `json:"payment_terms,omitempty"`
	Currency      string             `json:"currency"`
	PaymentMethod string             `json:"payment_method"`
	PaymentStatus string             `json:"payment_status"`
	Notes         string             `json:"notes,omitempty"`
	VATEnabled    bool               `json:"vat_enabled"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	VAT           decimal.Decimal    `json:"vat"`
	Total         decimal.Decimal    `json:"total"`
	Items         []LineItemResponse `json:"items"`
	CreatedAt     time.Time          `json:"created_at"`
}
