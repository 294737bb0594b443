package vision

import (
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/genproto/googleapis/rpc/status"
)

func TestDocumentTextRequest(t *testing.T) {
	img := []byte{0x89, 0x50, 0x4e, 0x47}
	req := documentTextRequest(img)

	if len(req.Requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(req.Requests))
	}
	r := req.Requests[0]
	if string(r.Image.Content) != string(img) {
		t.Fatal("image bytes not carried through")
	}
	if len(r.Features) != 1 || r.Features[0].Type != visionpb.Feature_DOCUMENT_TEXT_DETECTION {
		t.Fatalf("expected DOCUMENT_TEXT_DETECTION feature, got %v", r.Features)
	}
}

func TestDocumentText(t *testing.T) {
	text, err := documentText(&visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{
			{FullTextAnnotation: &visionpb.TextAnnotation{Text: "  hello world\n"}},
		},
	})
	if err != nil {
		t.Fatalf("documentText: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("unexpected text: %q", text)
	}

	// No annotation means no text, not an error.
	text, err = documentText(&visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{{}},
	})
	if err != nil || text != "" {
		t.Fatalf("blank image: text=%q err=%v", text, err)
	}
	if text, err = documentText(nil); err != nil || text != "" {
		t.Fatalf("nil response: text=%q err=%v", text, err)
	}

	// Per-image errors surface.
	_, err = documentText(&visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{
			{Error: &status.Status{Message: "bad image"}},
		},
	})
	if err == nil {
		t.Fatal("expected annotate error to surface")
	}
}
