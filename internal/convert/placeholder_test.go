package convert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdf2word/backend/internal/models"
)

func TestPlaceholderConverter_Delay(t *testing.T) {
	p := NewPlaceholderConverter()

	tests := []struct {
		name string
		size int64
		want time.Duration
	}{
		{"empty file uses minimum", 0, time.Second},
		{"small file uses minimum", 500_000, time.Second},
		{"scaled by size", 3_000_000, 3 * time.Second},
		{"capped at maximum", 50 * 1024 * 1024, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Delay(tt.size))
		})
	}
}

func TestPlaceholderConverter_Convert(t *testing.T) {
	fixed := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	var slept time.Duration
	p := &PlaceholderConverter{
		MinDelay: DefaultMinDelay,
		MaxDelay: DefaultMaxDelay,
		Sleep:    func(d time.Duration) { slept = d },
		Now:      func() time.Time { return fixed },
	}

	data, err := p.Convert(context.Background(), &models.TemporaryFile{
		OriginalName: "thesis.pdf",
		Size:         1536 * 1024,
	})
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "This is a converted Word document from thesis.pdf")
	assert.Contains(t, text, "Original file size: 1.50 MB")
	assert.Contains(t, text, "Conversion completed at: 2026-10-18T09:30:00Z")
	assert.Equal(t, 1572*time.Millisecond, slept)
}

func TestPlaceholderConverter_NilSource(t *testing.T) {
	_, err := NewPlaceholderConverter().Convert(context.Background(), nil)
	assert.Error(t, err)
}
