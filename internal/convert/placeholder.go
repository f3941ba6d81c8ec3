package convert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdf2word/backend/internal/models"
	"github.com/pdf2word/backend/internal/sizefmt"
)

// Default bounds for the simulated processing delay.
const (
	DefaultMinDelay = time.Second
	DefaultMaxDelay = 5 * time.Second
)

// PlaceholderConverter stands in for a real PDF to Word engine. It waits an
// amount of time proportional to the input size and returns a text payload
// describing the source file.
type PlaceholderConverter struct {
	MinDelay time.Duration
	MaxDelay time.Duration

	// Sleep blocks for the simulated delay. It deliberately ignores context
	// cancellation: an in-flight conversion always runs to completion.
	Sleep func(time.Duration)
	Now   func() time.Time
}

// NewPlaceholderConverter returns a converter with the default 1s-5s delay window.
func NewPlaceholderConverter() *PlaceholderConverter {
	return &PlaceholderConverter{
		MinDelay: DefaultMinDelay,
		MaxDelay: DefaultMaxDelay,
		Sleep:    time.Sleep,
		Now:      time.Now,
	}
}

// Delay returns roughly 1ms per KB of input, clamped to [MinDelay, MaxDelay].
func (p *PlaceholderConverter) Delay(size int64) time.Duration {
	d := time.Duration(size/1000) * time.Millisecond
	if d < p.MinDelay {
		d = p.MinDelay
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Convert implements Converter.
func (p *PlaceholderConverter) Convert(_ context.Context, src *models.TemporaryFile) ([]byte, error) {
	if src == nil {
		return nil, fmt.Errorf("no source file")
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}

	sleep(p.Delay(src.Size))

	var b strings.Builder
	fmt.Fprintf(&b, "This is a converted Word document from %s\n\n", src.OriginalName)
	fmt.Fprintf(&b, "Original file size: %s MB\n", sizefmt.Megabytes(src.Size))
	fmt.Fprintf(&b, "Conversion completed at: %s\n\n", now().UTC().Format(time.RFC3339Nano))
	b.WriteString("Note: This is a demo conversion. In a real implementation, ")
	b.WriteString("the actual PDF content would be extracted and converted to Word format.")
	return []byte(b.String()), nil
}
