package vision

import (
	"context"
	"fmt"
	"strings"

	visionapi "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/studyden/studyden-backend/internal/platform/logger"
)

// OCR turns image bytes into text so image uploads can enter the chunking
// pipeline like any other document.
type OCR interface {
	ImageToText(ctx context.Context, img []byte) (string, error)
	Close() error
}

type ocrService struct {
	log    *logger.Logger
	client *visionapi.ImageAnnotatorClient
}

func NewOCR(log *logger.Logger) (OCR, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	client, err := visionapi.NewImageAnnotatorClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &ocrService{log: log.With("service", "VisionOCR"), client: client}, nil
}

func (s *ocrService) ImageToText(ctx context.Context, img []byte) (string, error) {
	if len(img) == 0 {
		return "", fmt.Errorf("empty image")
	}
	resp, err := s.client.BatchAnnotateImages(ctx, documentTextRequest(img))
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	return documentText(resp)
}

func (s *ocrService) Close() error {
	return s.client.Close()
}

// documentTextRequest wraps raw image bytes in a single-image
// DOCUMENT_TEXT_DETECTION batch request.
func documentTextRequest(img []byte) *visionpb.BatchAnnotateImagesRequest {
	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: img},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}
}

// documentText pulls the full-text annotation out of a batch response. An
// image without any text is not an error; it yields an empty string.
func documentText(resp *visionpb.BatchAnnotateImagesResponse) (string, error) {
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return "", fmt.Errorf("vision annotate: %s", r0.Error.Message)
	}
	if r0.FullTextAnnotation == nil {
		return "", nil
	}
	return strings.TrimSpace(r0.FullTextAnnotation.Text), nil
}
