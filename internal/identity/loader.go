package identity

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"zoneguard-worker-go/internal/models"
)

var imageExts = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}}

// LoadDir registers every face image under dir. Images directly in dir are
// "known"; images under dir/allowed and dir/banned carry that status. The
// file name without extension is the person's name and the first file seen
// for a name wins, root first. Images in which no face is found are skipped.
func LoadDir(ctx context.Context, dir string, embedder Embedder, gallery *Gallery) (int, error) {
	if _, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("faces directory %s: %w", dir, err)
	}

	sources := []struct {
		path   string
		status models.IdentityStatus
	}{
		{dir, models.IdentityKnown},
		{filepath.Join(dir, "allowed"), models.IdentityAllowed},
		{filepath.Join(dir, "banned"), models.IdentityBanned},
	}

	loaded := 0
	for _, src := range sources {
		files, err := imageFiles(src.path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return loaded, err
		}
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return loaded, err
			}
			if ok := loadFile(ctx, path, src.status, embedder, gallery); ok {
				loaded++
			}
		}
	}

	log.Info().Str("dir", dir).Int("registered", loaded).Msg("Registered faces loaded")
	return loaded, nil
}

func loadFile(ctx context.Context, path string, status models.IdentityStatus, embedder Embedder, gallery *Gallery) bool {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Failed to read face image")
		return false
	}
	embeddings, err := embedder.Embed(ctx, data)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Failed to embed face image")
		return false
	}
	if len(embeddings) == 0 {
		log.Warn().Str("file", path).Msg("No face found in registered image, skipping")
		return false
	}
	if !gallery.Add(Entry{Name: name, Status: status, Source: path, Embedding: embeddings[0]}) {
		log.Debug().Str("name", name).Str("file", path).Msg("Duplicate registered name ignored")
		return false
	}
	log.Debug().Str("name", name).Str("status", status.String()).Msg("Registered face")
	return true
}

func imageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := imageExts[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
