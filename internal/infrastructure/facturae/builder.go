// Package facturae exporta facturas al formato Facturae 3.2.2 (sin firma) y
// calcula su huella SHA-256 sobre la forma canónica C14N del XML.
package facturae

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/ucarion/c14n"

	appbilling "github.com/jhoicas/appgestion-api/internal/application/billing"
	"github.com/jhoicas/appgestion-api/internal/domain/entity"
	"github.com/jhoicas/appgestion-api/internal/domain/numbering"
	"github.com/jhoicas/appgestion-api/internal/domain/pricing"
	"github.com/jhoicas/appgestion-api/pkg/nif"
)

var _ appbilling.FacturaeExporter = (*Exporter)(nil)

// Namespaces Facturae 3.2.2.
const (
	NsFacturae    = "http://www.facturae.gob.es/formato/Versiones/Facturaev3_2_2.xml"
	NsDs          = "http://www.w3.org/2000/09/xmldsig#"
	SchemaVersion = "3.2.2"

	taxTypeIVA     = "01"
	unitOfMeasure  = "01" // unidades
	paymentMeansTx = "04" // transferencia
	paymentMeansCs = "01" // contado
	invoiceClassOO = "OO" // original
	invoiceTypeFC  = "FC" // factura completa
)

// Exporter implementa billing.FacturaeExporter.
type Exporter struct{}

func NewExporter() *Exporter { return &Exporter{} }

// Export construye el XML y devuelve también la huella hex de su forma canónica.
func (e *Exporter) Export(company *entity.Company, customer *entity.Customer, inv *entity.Invoice) ([]byte, string, error) {
	if company == nil || customer == nil || inv == nil {
		return nil, "", fmt.Errorf("facturae: faltan empresa, cliente o factura")
	}
	doc := Build(company, customer, inv)
	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, "", fmt.Errorf("facturae: serializar: %w", err)
	}
	digest, err := Digest(out)
	if err != nil {
		return nil, "", err
	}
	return out, digest, nil
}

// Digest SHA-256 (hex) del documento canonicalizado. La declaración XML no
// forma parte de la forma canónica.
func Digest(xmlBytes []byte) (string, error) {
	body := bytes.TrimSpace(xmlBytes)
	if bytes.HasPrefix(body, []byte("<?xml")) {
		if end := bytes.Index(body, []byte("?>")); end >= 0 {
			body = bytes.TrimSpace(body[end+2:])
		}
	}
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Entity = map[string]string{}
	canonical, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("facturae: canonicalizar: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Build arma el árbol Facturae de una factura.
func Build(company *entity.Company, customer *entity.Customer, inv *entity.Invoice) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("fe:Facturae")
	root.CreateAttr("xmlns:fe", NsFacturae)
	root.CreateAttr("xmlns:ds", NsDs)

	currency := inv.Currency
	if currency == "" {
		currency = entity.DefaultCurrency
	}

	// ── FileHeader ───────────────────────────────────────────────────────────
	header := root.CreateElement("FileHeader")
	text(header, "SchemaVersion", SchemaVersion)
	text(header, "Modality", "I")
	text(header, "InvoiceIssuerType", "EM")
	batch := header.CreateElement("Batch")
	text(batch, "BatchIdentifier", nif.Normalize(company.NIF)+inv.Number)
	text(batch, "InvoicesCount", "1")
	amount(batch, "TotalInvoicesAmount", inv.Total)
	amount(batch, "TotalOutstandingAmount", inv.Total)
	amount(batch, "TotalExecutableAmount", inv.Total)
	text(batch, "InvoiceCurrencyCode", currency)

	// ── Parties ──────────────────────────────────────────────────────────────
	parties := root.CreateElement("Parties")
	party(parties.CreateElement("SellerParty"), company.NIF, company.Name,
		company.Address, company.PostalCode, company.Province, company.Country)
	party(parties.CreateElement("BuyerParty"), customer.TaxID, customer.Name,
		customer.Address, customer.PostalCode, customer.Province, customer.Country)

	// ── Invoice ──────────────────────────────────────────────────────────────
	invoice := root.CreateElement("Invoices").CreateElement("Invoice")

	ih := invoice.CreateElement("InvoiceHeader")
	series, number := splitNumber(inv.Number)
	text(ih, "InvoiceNumber", number)
	if series != "" {
		text(ih, "InvoiceSeriesCode", series)
	}
	text(ih, "InvoiceDocumentType", invoiceTypeFC)
	text(ih, "InvoiceClass", invoiceClassOO)

	issue := invoice.CreateElement("InvoiceIssueData")
	text(issue, "IssueDate", inv.IssueDate.Format("2006-01-02"))
	if inv.OperationDate != nil {
		text(issue, "OperationDate", inv.OperationDate.Format("2006-01-02"))
	}
	text(issue, "InvoiceCurrencyCode", currency)
	text(issue, "TaxCurrencyCode", currency)
	text(issue, "LanguageName", "es")

	taxed, exempt := taxBases(inv)
	taxes := invoice.CreateElement("TaxesOutputs")
	if !taxed.IsZero() || exempt.IsZero() {
		tax(taxes, pricing.VATRate.Shift(2), taxed, inv.VAT)
	}
	if !exempt.IsZero() {
		tax(taxes, decimal.Zero, exempt, decimal.Zero)
	}

	totals := invoice.CreateElement("InvoiceTotals")
	text(totals, "TotalGrossAmount", two(inv.Subtotal))
	text(totals, "TotalGrossAmountBeforeTaxes", two(inv.Subtotal))
	text(totals, "TotalTaxOutputs", two(inv.VAT))
	text(totals, "TotalTaxesWithheld", two(decimal.Zero))
	text(totals, "InvoiceTotal", two(inv.Total))
	text(totals, "TotalOutstandingAmount", two(inv.Total))
	text(totals, "TotalExecutableAmount", two(inv.Total))

	items := invoice.CreateElement("Items")
	for _, it := range inv.Items {
		line(items.CreateElement("InvoiceLine"), it, inv.VATEnabled)
	}

	if inv.DueDate != nil {
		inst := invoice.CreateElement("PaymentDetails").CreateElement("Installment")
		text(inst, "InstallmentDueDate", inv.DueDate.Format("2006-01-02"))
		text(inst, "InstallmentAmount", two(inv.Total))
		text(inst, "PaymentMeans", paymentMeans(inv.PaymentMethod))
	}

	if notes := strings.TrimSpace(strings.Join(nonBlank(inv.FiscalRegime, inv.PaymentTerms, inv.Notes), "\n")); notes != "" {
		text(invoice.CreateElement("AdditionalData"), "InvoiceAdditionalInformation", notes)
	}
	return doc
}

// ── Secciones ────────────────────────────────────────────────────────────────

func party(el *etree.Element, taxID, name, address, postalCode, province, country string) {
	id := nif.Normalize(taxID)
	personType := "J"
	if t := nif.Detect(id); t == nif.TypeDNI || t == nif.TypeNIE {
		personType = "F"
	}
	code := countryCode(country)

	ti := el.CreateElement("TaxIdentification")
	text(ti, "PersonTypeCode", personType)
	text(ti, "ResidenceTypeCode", residenceType(code))
	text(ti, "TaxIdentificationNumber", id)

	var holder *etree.Element
	if personType == "F" {
		holder = el.CreateElement("Individual")
		first, rest := splitName(name)
		text(holder, "Name", first)
		text(holder, "FirstSurname", rest)
	} else {
		holder = el.CreateElement("LegalEntity")
		text(holder, "CorporateName", name)
	}

	// sin municipio propio: se usa la provincia como población
	if code == "ESP" {
		addr := holder.CreateElement("AddressInSpain")
		text(addr, "Address", address)
		text(addr, "PostCode", postalCode)
		text(addr, "Town", province)
		text(addr, "Province", province)
		text(addr, "CountryCode", code)
		return
	}
	addr := holder.CreateElement("OverseasAddress")
	text(addr, "Address", address)
	text(addr, "PostCodeAndTown", strings.TrimSpace(postalCode+" "+province))
	text(addr, "Province", province)
	text(addr, "CountryCode", code)
}

func line(el *etree.Element, it entity.InvoiceItem, vatEnabled bool) {
	desc := ""
	if it.Kind != nil {
		desc = it.Kind.Description()
	}
	totalCost := it.Quantity.Mul(it.UnitPrice)

	text(el, "ItemDescription", desc)
	text(el, "Quantity", it.Quantity.String())
	text(el, "UnitOfMeasure", unitOfMeasure)
	text(el, "UnitPriceWithoutTax", six(it.UnitPrice))
	text(el, "TotalCost", six(totalCost))
	if discount := totalCost.Sub(it.Subtotal); discount.IsPositive() {
		d := el.CreateElement("DiscountsAndRebates").CreateElement("Discount")
		text(d, "DiscountReason", "Descuento")
		text(d, "DiscountAmount", six(discount))
	}
	text(el, "GrossAmount", six(it.Subtotal))

	rate := decimal.Zero
	if vatEnabled && it.VATApplicable {
		rate = pricing.VATRate.Shift(2)
	}
	tax(el.CreateElement("TaxesOutputs"), rate, it.Subtotal, it.VATShare)
}

func tax(parent *etree.Element, rate, base, taxAmount decimal.Decimal) {
	t := parent.CreateElement("Tax")
	text(t, "TaxTypeCode", taxTypeIVA)
	text(t, "TaxRate", two(rate))
	amount(t, "TaxableBase", base)
	amount(t, "TaxAmount", taxAmount)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func text(parent *etree.Element, tag, value string) {
	parent.CreateElement(tag).SetText(value)
}

func amount(parent *etree.Element, tag string, v decimal.Decimal) {
	text(parent.CreateElement(tag), "TotalAmount", two(v))
}

func two(d decimal.Decimal) string { return d.StringFixed(2) }
func six(d decimal.Decimal) string { return d.StringFixed(6) }

// taxBases reparte la base imponible entre líneas con IVA y exentas.
func taxBases(inv *entity.Invoice) (taxed, exempt decimal.Decimal) {
	for _, it := range inv.Items {
		if inv.VATEnabled && it.VATApplicable {
			taxed = taxed.Add(it.Subtotal)
		} else {
			exempt = exempt.Add(it.Subtotal)
		}
	}
	return taxed, exempt
}

// splitNumber separa FAC-2026-0007 en serie "FAC-2026" y número "0007".
func splitNumber(number string) (series, n string) {
	s, year, seq, err := numbering.Parse(number)
	if err != nil {
		return "", number
	}
	return fmt.Sprintf("%s-%d", s, year), fmt.Sprintf("%04d", seq)
}

func splitName(name string) (first, rest string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// countryCode ISO 3166-1 alfa-3. Sin país se asume España.
func countryCode(country string) string {
	c := strings.ToLower(strings.TrimSpace(country))
	switch c {
	case "", "españa", "espana", "spain", "es", "esp":
		return "ESP"
	case "portugal", "pt", "prt":
		return "PRT"
	case "francia", "france", "fr", "fra":
		return "FRA"
	case "andorra", "ad", "and":
		return "AND"
	}
	if len(c) == 3 {
		return strings.ToUpper(c)
	}
	return "ESP"
}

// residenceType R residente, E resto de la UE, U fuera de la UE.
func residenceType(code string) string {
	switch code {
	case "ESP":
		return "R"
	case "PRT", "FRA", "DEU", "ITA", "IRL", "NLD", "BEL", "LUX", "AUT":
		return "E"
	default:
		return "U"
	}
}

func paymentMeans(method string) string {
	if strings.EqualFold(strings.TrimSpace(method), "efectivo") || strings.EqualFold(strings.TrimSpace(method), "contado") {
		return paymentMeansCs
	}
	return paymentMeansTx
}

func nonBlank(values ...string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
