// Package ocr extracts text from receipt photos. Recognition is attempted
// once per photo; every failure mode degrades to ErrNoText so the
// conversation can offer manual entry instead of retry loops.
package ocr

import (
	"context"
	"errors"
)

// ErrNoText is returned when an image yields no recognizable text, whatever
// the underlying cause.
var ErrNoText = errors.New("ocr: no text recognized")

// Recognizer turns raw image bytes into recognized text.
type Recognizer interface {
	RecognizeText(ctx context.Context, image []byte) (string, error)
}

// Disabled is a Recognizer used when no OCR backend is configured. It always
// reports ErrNoText, which the conversation surfaces as an unreadable image.
type Disabled struct{}

// RecognizeText always fails with ErrNoText.
func (Disabled) RecognizeText(context.Context, []byte) (string, error) {
	return "", ErrNoText
}
