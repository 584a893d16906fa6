// Package printing renders order invoices as PDF documents.
package printing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
	infra "github.com/storefront/backend/internal/infrastructure/printing"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrRenderFailed is returned when the invoice cannot be turned into a PDF
var ErrRenderFailed = shared.NewDomainError("RENDER_FAILED", "Invoice document could not be rendered")

// InvoiceFormatter turns an invoice view into printable HTML
type InvoiceFormatter interface {
	Render(view *infra.InvoiceView) (string, error)
	Footer(invoice string) string
}

// InvoiceArchive keeps rendered invoices and hands out download links
type InvoiceArchive interface {
	Store(ctx context.Context, invoice string, pdf []byte) (string, error)
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
}

// InvoiceOptions controls the printed layout
type InvoiceOptions struct {
	StoreName string
	PaperSize infra.PaperSize
	Margins   infra.Margins
	Timeout   time.Duration
}

// InvoiceService renders a customer's order invoice
type InvoiceService struct {
	orderRepo order.Repository
	calc      *pricing.Calculator
	formatter InvoiceFormatter
	renderer  infra.PDFRenderer
	archive   InvoiceArchive
	opts      InvoiceOptions
	logger    *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	orderRepo order.Repository,
	calc *pricing.Calculator,
	formatter InvoiceFormatter,
	renderer infra.PDFRenderer,
	opts InvoiceOptions,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !opts.PaperSize.IsValid() {
		opts.PaperSize = infra.PaperSizeA4
	}
	if opts.Margins == (infra.Margins{}) {
		opts.Margins = infra.DefaultMargins()
	}
	return &InvoiceService{
		orderRepo: orderRepo,
		calc:      calc,
		formatter: formatter,
		renderer:  renderer,
		opts:      opts,
		logger:    logger,
	}
}

// SetArchive enables archiving rendered invoices to object storage
func (s *InvoiceService) SetArchive(archive InvoiceArchive) {
	s.archive = archive
}

// RenderInvoice renders the customer's order invoice to PDF
func (s *InvoiceService) RenderInvoice(ctx context.Context, customerID uuid.UUID, invoice string) (*InvoiceDocument, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "render")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoice, invoice,
		telemetry.SpanAttrCustomerID, customerID.String(),
	)

	o, err := s.orderRepo.FindByInvoice(ctx, customerID, invoice)
	if err != nil {
		telemetry.RecordError(span, err)
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, shared.NewStorageUnavailable(err)
	}

	view, err := s.buildView(o)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	html, err := s.formatter.Render(view)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, ErrRenderFailed.Wrap(err)
	}

	result, err := s.renderer.Render(ctx, &infra.RenderRequest{
		HTML:       html,
		PaperSize:  s.opts.PaperSize,
		Margins:    s.opts.Margins,
		Title:      "Invoice " + o.Invoice,
		FooterHTML: s.formatter.Footer(o.Invoice),
		Timeout:    s.opts.Timeout,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Invoice rendering failed", zap.String("invoice", o.Invoice), zap.Error(err))
		return nil, ErrRenderFailed.Wrap(err)
	}

	doc := &InvoiceDocument{
		Invoice:   o.Invoice,
		Filename:  o.Invoice + ".pdf",
		PageCount: result.PageCount,
		PDF:       result.PDFData,
	}
	if s.archive != nil {
		s.attachLink(ctx, doc)
	}
	return doc, nil
}

// attachLink archives the PDF and swaps the bytes for a download link.
// Archive failures leave the bytes in place.
func (s *InvoiceService) attachLink(ctx context.Context, doc *InvoiceDocument) {
	key, err := s.archive.Store(ctx, doc.Invoice, doc.PDF)
	if err != nil {
		s.logger.Warn("Invoice archive upload failed", zap.String("invoice", doc.Invoice), zap.Error(err))
		return
	}
	url, expiresAt, err := s.archive.DownloadURL(ctx, key)
	if err != nil {
		s.logger.Warn("Invoice download link failed", zap.String("key", key), zap.Error(err))
		return
	}
	doc.URL = url
	doc.ExpiresAt = &expiresAt
	doc.PDF = nil
}

func (s *InvoiceService) buildView(o *order.Order) (*infra.InvoiceView, error) {
	totals, err := o.Totals(s.calc)
	if err != nil {
		return nil, err
	}
	items := o.Items()
	lines := make([]infra.InvoiceLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, infra.InvoiceLine{
			Name:            item.Name,
			Color:           item.Color,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			Net:             item.PricingLine().Net().Round(2),
		})
	}
	return &infra.InvoiceView{
		StoreName: s.opts.StoreName,
		Invoice:   o.Invoice,
		Status:    o.Status.String(),
		CreatedAt: o.CreatedAt,
		PaidAt:    o.PaidAt,
		Lines:     lines,
		Discount:  totals.Discount,
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Total:     totals.Total,
	}, nil
}
