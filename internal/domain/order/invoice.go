package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	// MinInvoiceBytes is the minimum entropy of an invoice token
	MinInvoiceBytes = 10
	// DefaultInvoiceAttempts bounds collision retries during checkout
	DefaultInvoiceAttempts = 5
)

// InvoiceGenerator produces public invoice tokens
type InvoiceGenerator interface {
	Generate() (string, error)
}

// RandomInvoiceGenerator hex-encodes bytes read from a cryptographic source
type RandomInvoiceGenerator struct {
	size   int
	source io.Reader
}

// NewRandomInvoiceGenerator creates a generator emitting size random bytes
// per token. Sizes below MinInvoiceBytes are raised to it.
func NewRandomInvoiceGenerator(size int) *RandomInvoiceGenerator {
	if size < MinInvoiceBytes {
		size = MinInvoiceBytes
	}
	return &RandomInvoiceGenerator{size: size, source: rand.Reader}
}

// Generate returns a new lowercase hex token of 2*size characters
func (g *RandomInvoiceGenerator) Generate() (string, error) {
	buf := make([]byte, g.size)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", fmt.Errorf("invoice: read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

var _ InvoiceGenerator = (*RandomInvoiceGenerator)(nil)
