package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"zoneguard-worker-go/internal/models"
	"zoneguard-worker-go/internal/services/rpc"
	"zoneguard-worker-go/internal/services/rpc/rpctest"
)

// mapEmbedder returns the embedding registered for the exact image bytes.
type mapEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (m mapEmbedder) Embed(_ context.Context, image []byte) ([][]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.vectors[string(image)]
	if !ok {
		return nil, nil
	}
	return [][]float64{v}, nil
}

type staticCropper struct {
	data []byte
	err  error
}

func (c staticCropper) CropJPEG(*models.Frame, models.Box) ([]byte, error) {
	return c.data, c.err
}

func TestGalleryMatch(t *testing.T) {
	g := NewGallery(0.6)
	require.True(t, g.Add(Entry{Name: "alice", Status: models.IdentityAllowed, Embedding: []float64{0, 0, 0}}))
	require.True(t, g.Add(Entry{Name: "mallory", Status: models.IdentityBanned, Embedding: []float64{1, 1, 1}}))
	assert.False(t, g.Add(Entry{Name: "alice", Status: models.IdentityBanned, Embedding: []float64{5, 5, 5}}), "first name wins")
	assert.False(t, g.Add(Entry{Name: "empty"}))
	assert.Equal(t, 2, g.Len())

	res := g.Match([]float64{0.3, 0, 0})
	assert.Equal(t, "alice", res.Name)
	assert.Equal(t, models.IdentityAllowed, res.Status)
	assert.InDelta(t, 0.3, res.Distance, 1e-9)

	res = g.Match([]float64{0.59, 0, 0})
	assert.Equal(t, "alice", res.Name)

	res = g.Match([]float64{0.6, 0, 0})
	assert.Equal(t, models.IdentityUnknown, res.Status, "distance equal to the threshold is not a match")
	assert.Equal(t, "Unknown", res.Name)

	res = g.Match([]float64{0.9, 0.9, 1})
	assert.Equal(t, "mallory", res.Name)

	res = g.Match([]float64{3, 3, 3})
	assert.Equal(t, models.IdentityUnknown, res.Status)
	assert.Zero(t, res.Distance)

	res = g.Match([]float64{0, 0})
	assert.Equal(t, models.IdentityUnknown, res.Status, "dimension mismatch never matches")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "carol.jpg"), "carol")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "allowed", "alice.jpg"), "alice")
	writeFile(t, filepath.Join(dir, "allowed", "carol.png"), "carol-allowed")
	writeFile(t, filepath.Join(dir, "banned", "mallory.jpeg"), "mallory")
	writeFile(t, filepath.Join(dir, "banned", "blurry.jpg"), "no-face")

	emb := mapEmbedder{vectors: map[string][]float64{
		"carol":         {1, 0},
		"alice":         {0, 1},
		"carol-allowed": {1, 1},
		"mallory":       {2, 2},
	}}
	g := NewGallery(DefaultMatchThreshold)

	n, err := LoadDir(context.Background(), dir, emb, g)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for vec, want := range map[[2]float64]models.IdentityStatus{
		{1, 0}: models.IdentityKnown,
		{0, 1}: models.IdentityAllowed,
		{2, 2}: models.IdentityBanned,
	} {
		assert.Equal(t, want, g.Match(vec[:]).Status, "vector %v", vec)
	}
	assert.Equal(t, "carol", g.Match([]float64{1, 0}).Name, "first carol wins")
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"), mapEmbedder{}, NewGallery(0))
	assert.Error(t, err)
}

func TestResolver(t *testing.T) {
	g := NewGallery(DefaultMatchThreshold)
	g.Add(Entry{Name: "mallory", Status: models.IdentityBanned, Embedding: []float64{1, 1}})
	emb := mapEmbedder{vectors: map[string][]float64{"face": {1, 1.2}}}
	box := models.Box{X1: 0, Y1: 0, X2: 50, Y2: 100}

	res, err := NewResolver(staticCropper{data: []byte("face")}, emb, g).Resolve(context.Background(), nil, box)
	require.NoError(t, err)
	assert.Equal(t, "mallory", res.Name)
	assert.InDelta(t, 0.2, res.Distance, 1e-9)

	res, err = NewResolver(staticCropper{data: []byte("no-face")}, emb, g).Resolve(context.Background(), nil, box)
	require.NoError(t, err)
	assert.Equal(t, models.IdentityUnknown, res.Status)

	res, err = NewResolver(staticCropper{data: []byte("face")}, emb, g).Resolve(context.Background(), nil, models.Box{})
	require.NoError(t, err)
	assert.Equal(t, models.IdentityUnknown, res.Status)

	_, err = NewResolver(staticCropper{err: errors.New("bad roi")}, emb, g).Resolve(context.Background(), nil, box)
	assert.Error(t, err)

	_, err = NewResolver(staticCropper{data: []byte("face")}, mapEmbedder{err: errors.New("down")}, g).Resolve(context.Background(), nil, box)
	assert.Error(t, err)
}

func TestGRPCEmbedder(t *testing.T) {
	addr := rpctest.Serve(t, EmbedMethod, func(_ context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
		if string(req.GetValue()) == "no-face" {
			return structpb.NewStruct(map[string]any{"embeddings": []any{}})
		}
		return structpb.NewStruct(map[string]any{
			"embeddings": []any{[]any{0.1, 0.2, 0.3}},
		})
	})

	client := rpc.NewClient(rpc.Options{Name: "face-embedder", Endpoint: addr, Timeout: 2 * time.Second})
	t.Cleanup(client.Close)
	e := NewGRPCEmbedder(client)

	out, err := e.Embed(context.Background(), []byte("face"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.3}, out[0], 1e-9)

	out, err = e.Embed(context.Background(), []byte("no-face"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParseEmbeddingsRejectsBadShape(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"embeddings": []any{"x"}})
	require.NoError(t, err)
	_, err = ParseEmbeddings(s)
	assert.Error(t, err)
}
