package identity

import (
	"context"
	"fmt"

	"zoneguard-worker-go/internal/models"
)

// Cropper cuts a box out of a frame and encodes it as an image.
type Cropper interface {
	CropJPEG(frame *models.Frame, box models.Box) ([]byte, error)
}

// Resolver identifies the person inside a box by embedding the crop and
// matching it against the gallery.
type Resolver struct {
	cropper  Cropper
	embedder Embedder
	gallery  *Gallery
}

func NewResolver(cropper Cropper, embedder Embedder, gallery *Gallery) *Resolver {
	return &Resolver{cropper: cropper, embedder: embedder, gallery: gallery}
}

// Resolve returns unknown for empty boxes, crops without a face and
// non-matching faces. Errors are returned only for crop or transport failures.
func (r *Resolver) Resolve(ctx context.Context, frame *models.Frame, box models.Box) (models.IdentityResult, error) {
	if box.Empty() || r.gallery.Len() == 0 {
		return models.UnknownIdentity(), nil
	}

	crop, err := r.cropper.CropJPEG(frame, box)
	if err != nil {
		return models.UnknownIdentity(), fmt.Errorf("failed to crop person: %w", err)
	}
	if len(crop) == 0 {
		return models.UnknownIdentity(), nil
	}

	embeddings, err := r.embedder.Embed(ctx, crop)
	if err != nil {
		return models.UnknownIdentity(), fmt.Errorf("failed to embed crop: %w", err)
	}
	if len(embeddings) == 0 {
		return models.UnknownIdentity(), nil
	}
	return r.gallery.Match(embeddings[0]), nil
}
