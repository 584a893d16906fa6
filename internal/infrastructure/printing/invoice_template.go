package printing

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/invoice.html
var templateFS embed.FS

const invoiceTemplateName = "invoice.html"

// InvoiceLine is one row of a rendered invoice
type InvoiceLine struct {
	Name            string
	Color           string
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountPercent int
	Net             decimal.Decimal
}

// InvoiceView holds everything printed on an invoice
type InvoiceView struct {
	StoreName string
	Invoice   string
	Status    string
	CreatedAt time.Time
	PaidAt    *time.Time
	Lines     []InvoiceLine
	Discount  decimal.Decimal
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
}

// InvoiceTemplate renders invoices to HTML in a fixed currency and locale
type InvoiceTemplate struct {
	tmpl    *template.Template
	lang    language.Tag
	printer *message.Printer
	symbol  string
}

// NewInvoiceTemplate parses the embedded invoice template. Unknown currency
// codes fall back to USD and unknown locales to English.
func NewInvoiceTemplate(currencyCode, locale string) (*InvoiceTemplate, error) {
	unit, err := currency.ParseISO(strings.ToUpper(currencyCode))
	if err != nil {
		unit = currency.USD
	}
	lang, err := language.Parse(locale)
	if err != nil {
		lang = language.English
	}

	t := &InvoiceTemplate{
		lang:    lang,
		printer: message.NewPrinter(lang),
	}
	t.symbol = t.printer.Sprint(currency.Symbol(unit))

	titler := cases.Title(lang)
	t.tmpl, err = template.New(invoiceTemplateName).Funcs(template.FuncMap{
		"money":  t.formatMoney,
		"number": func(n int) string { return t.printer.Sprint(number.Decimal(n)) },
		"date":   formatDate,
		"title":  titler.String,
	}).ParseFS(templateFS, "templates/"+invoiceTemplateName)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse invoice template", err)
	}
	return t, nil
}

// Render executes the invoice template
func (t *InvoiceTemplate) Render(view *InvoiceView) (string, error) {
	if view == nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "invoice view is nil", nil)
	}
	data := struct {
		*InvoiceView
		Lang string
	}{InvoiceView: view, Lang: t.lang.String()}

	var buf bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&buf, invoiceTemplateName, data); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute invoice template", err)
	}
	return buf.String(), nil
}

// Footer returns the page footer printed by the renderer
func (t *InvoiceTemplate) Footer(invoice string) string {
	return `<div style="font-size:8px;width:100%;text-align:center;color:#888;">Invoice ` +
		template.HTMLEscapeString(invoice) +
		` &middot; page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
}

func (t *InvoiceTemplate) formatMoney(d decimal.Decimal) string {
	amount := t.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
	return t.symbol + amount
}

func formatDate(v any) string {
	switch tv := v.(type) {
	case time.Time:
		return tv.UTC().Format("2006-01-02")
	case *time.Time:
		if tv == nil {
			return ""
		}
		return tv.UTC().Format("2006-01-02")
	default:
		return ""
	}
}
