package printing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *ChromedpRenderer {
	t.Helper()
	r, err := NewChromedpRenderer(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r := newTestRenderer(t)

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.Equal(t, defaultScale, r.config.Scale)
	assert.NotNil(t, r.logger)
}

func TestChromedpRenderer_RenderValidation(t *testing.T) {
	r := newTestRenderer(t)

	tests := []struct {
		name string
		req  *RenderRequest
		code string
	}{
		{"nil request", nil, ErrCodeInvalidHTML},
		{"blank html", &RenderRequest{HTML: "  ", PaperSize: PaperSizeA4}, ErrCodeInvalidHTML},
		{"bad paper", &RenderRequest{HTML: "<p>x</p>", PaperSize: "A0"}, ErrCodeInvalidPaperSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render(context.Background(), tt.req)
			var rerr *RenderError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tt.code, rerr.Code)
		})
	}
}

func TestBuildPrintParams(t *testing.T) {
	r := newTestRenderer(t)

	p := r.buildPrintParams(&RenderRequest{
		HTML:      "<p>x</p>",
		PaperSize: PaperSizeA4,
		Margins:   Margins{Top: 25.4, Right: 12.7, Bottom: 0, Left: 12.7},
		Landscape: true,
	})
	assert.InDelta(t, 8.2677, p.paperWidth, 0.001)
	assert.InDelta(t, 11.6929, p.paperHeight, 0.001)
	assert.InDelta(t, 1.0, p.marginTop, 0.001)
	assert.InDelta(t, 0.5, p.marginLeft, 0.001)
	assert.Zero(t, p.marginBottom)
	assert.True(t, p.landscape)
	assert.Empty(t, p.footerTemplate)
}

func TestBuildPrintParams_FooterReservesMargin(t *testing.T) {
	r := newTestRenderer(t)

	p := r.buildPrintParams(&RenderRequest{
		HTML:       "<p>x</p>",
		PaperSize:  PaperSizeLetter,
		Margins:    DefaultMargins(),
		FooterHTML: "<div>footer</div>",
	})
	assert.Equal(t, "<div>footer</div>", p.footerTemplate)
	assert.InDelta(t, mmToInches(minFooterMarginMM), p.marginBottom, 0.0001)
	assert.InDelta(t, 8.5, p.paperWidth, 0.001)
}

func TestWrapDocument(t *testing.T) {
	full := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, full, wrapDocument(&RenderRequest{HTML: full}))

	out := wrapDocument(&RenderRequest{HTML: "<p>hi</p>", Title: "A&B"})
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>A&amp;B</title>")
	assert.Contains(t, out, "<body><p>hi</p></body>")
}

func TestCountPages(t *testing.T) {
	pdf := []byte("<< /Type /Pages /Count 2 >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, countPages(pdf))
	assert.Equal(t, 1, countPages([]byte("%PDF-1.4")))
}

func TestRenderRequest_TimeoutOverride(t *testing.T) {
	r := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, &RenderRequest{HTML: "<p>x</p>", PaperSize: PaperSizeA4, Timeout: time.Second})
	require.Error(t, err)
	var rerr *RenderError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ErrCodeRenderTimeout, rerr.Code)
}
