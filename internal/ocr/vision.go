package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
	"log/slog"

	"github.com/Dharshan209/fintrack-bot/internal/logger"
)

// VisionClient recognizes text with the Google Cloud Vision API.
type VisionClient struct {
	svc *vision.Service
}

// NewVisionClient builds a Vision-backed recognizer. credentialsFile may be
// empty, in which case Application Default Credentials are used.
func NewVisionClient(ctx context.Context, credentialsFile string) (*VisionClient, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision service: %w", err)
	}
	return &VisionClient{svc: svc}, nil
}

// RecognizeText runs a single TEXT_DETECTION annotation over the image.
// API errors and empty annotations both collapse into ErrNoText: the caller
// never retries OCR for the same photo.
func (c *VisionClient) RecognizeText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrNoText
	}

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image: &vision.Image{
				Content: base64.StdEncoding.EncodeToString(image),
			},
			Features: []*vision.Feature{{
				Type:       "TEXT_DETECTION",
				MaxResults: 1,
			}},
		}},
	}

	start := time.Now()
	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		logger.Warn(ctx, "ocr", "vision.annotate",
			slog.String("status", "fail"),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return "", ErrNoText
	}

	if len(resp.Responses) == 0 {
		return "", ErrNoText
	}
	ann := resp.Responses[0]
	if ann.Error != nil {
		logger.Warn(ctx, "ocr", "vision.annotate",
			slog.String("status", "fail"),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", ann.Error.Message),
		)
		return "", ErrNoText
	}
	if len(ann.TextAnnotations) == 0 {
		return "", ErrNoText
	}

	// The first annotation aggregates the full recognized text block.
	text := strings.TrimSpace(ann.TextAnnotations[0].Description)
	if text == "" {
		return "", ErrNoText
	}

	logger.Debug(ctx, "ocr", "vision.annotate",
		slog.String("status", "ok"),
		slog.Int("text_len", len(text)),
		slog.Duration("duration", logger.Took(start)),
	)
	return text, nil
}
