package identity

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"zoneguard-worker-go/internal/services/rpc"
)

// EmbedMethod takes a BytesValue image (JPEG or PNG) and returns a Struct
// {"embeddings": [[f0, f1, ...], ...]} with one vector per detected face.
const EmbedMethod = "/zoneguard.face.v1.FaceEmbedder/Embed"

// Embedder computes face embeddings for an encoded image.
type Embedder interface {
	Embed(ctx context.Context, image []byte) ([][]float64, error)
}

// GRPCEmbedder calls a remote face-embedding service.
type GRPCEmbedder struct {
	client *rpc.Client
}

func NewGRPCEmbedder(client *rpc.Client) *GRPCEmbedder {
	return &GRPCEmbedder{client: client}
}

func (e *GRPCEmbedder) Embed(ctx context.Context, image []byte) ([][]float64, error) {
	resp := &structpb.Struct{}
	if err := e.client.Invoke(ctx, EmbedMethod, wrapperspb.Bytes(image), resp); err != nil {
		return nil, err
	}
	return ParseEmbeddings(resp)
}

// ParseEmbeddings decodes the embedder response. A missing field means no face.
func ParseEmbeddings(resp *structpb.Struct) ([][]float64, error) {
	field, ok := resp.GetFields()["embeddings"]
	if !ok {
		return nil, nil
	}
	list := field.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("embeddings must be a list")
	}

	out := make([][]float64, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		vec := v.GetListValue()
		if vec == nil {
			return nil, fmt.Errorf("embedding %d is not a list", i)
		}
		emb := make([]float64, len(vec.GetValues()))
		for j, x := range vec.GetValues() {
			emb[j] = x.GetNumberValue()
		}
		out = append(out, emb)
	}
	return out, nil
}
