// Package source resolves playback sources into URIs a media backend can
// open.
//
// Network sources pass through unchanged. File and asset sources are
// rewritten into file:// references; assets are looked up below an asset
// root so a missing asset fails before any backend is constructed.
package source

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/go-drift/videoview/pkg/playback"
)

// ErrNotFound is returned when a file or asset source does not exist.
var ErrNotFound = errors.New("source: not found")

// Resolver implements playback.Resolver on top of an afero filesystem.
type Resolver struct {
	fs        afero.Fs
	assetRoot string

	// CheckFiles makes file sources fail when the path does not exist.
	// Assets are always checked.
	CheckFiles bool
}

var _ playback.Resolver = (*Resolver)(nil)

// NewResolver creates a resolver whose assets live under assetRoot on fs.
// A nil fs means the operating system filesystem.
func NewResolver(fs afero.Fs, assetRoot string) *Resolver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Resolver{fs: fs, assetRoot: assetRoot}
}

// Resolve returns the backend URI for src.
func (r *Resolver) Resolve(src playback.Source) (string, error) {
	id := strings.TrimSpace(src.ID)
	if id == "" {
		return "", fmt.Errorf("empty source identifier")
	}

	switch src.Kind {
	case playback.SourceNetwork:
		return id, nil

	case playback.SourceFile:
		p := strings.TrimPrefix(id, "file://")
		if r.CheckFiles {
			if err := r.exists(p); err != nil {
				return "", err
			}
		}
		return fileURI(p), nil

	case playback.SourceAsset:
		rel := path.Clean("/" + filepath.ToSlash(id))[1:]
		if rel == "" {
			return "", fmt.Errorf("invalid asset path %q", id)
		}
		p := filepath.Join(r.assetRoot, filepath.FromSlash(rel))
		if err := r.exists(p); err != nil {
			return "", err
		}
		return fileURI(p), nil

	default:
		return "", fmt.Errorf("unsupported source kind %v", src.Kind)
	}
}

func (r *Resolver) exists(p string) error {
	info, err := r.fs.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", p)
	}
	return nil
}

func fileURI(p string) string {
	return "file://" + filepath.ToSlash(p)
}
