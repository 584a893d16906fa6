// Package printing renders customer invoices to PDF.
//
// InvoiceTemplate turns an invoice view into HTML with html/template and
// golang.org/x/text currency formatting; ChromedpRenderer prints that HTML to
// PDF through a headless Chrome instance (local or remote).
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{RemoteURL: "ws://chrome:9222"})
//	if err != nil {
//	    return err
//	}
//	defer renderer.Close()
//
//	html, err := NewInvoiceTemplate("USD").Render(view)
//	result, err := renderer.Render(ctx, &RenderRequest{HTML: html, PaperSize: PaperSizeA4})
package printing
