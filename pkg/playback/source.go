package playback

import (
	"fmt"
	"strings"
)

// SourceKind tells the controller how a source identifier must be resolved.
type SourceKind int

const (
	// SourceNetwork identifies a remote URI passed to the backend unchanged.
	SourceNetwork SourceKind = iota
	// SourceFile identifies an absolute path on the local filesystem.
	SourceFile
	// SourceAsset identifies a path relative to the host's bundled assets.
	SourceAsset
)

// String returns the wire name of the kind.
func (k SourceKind) String() string {
	switch k {
	case SourceNetwork:
		return "network"
	case SourceFile:
		return "file"
	case SourceAsset:
		return "asset"
	default:
		return "unknown"
	}
}

// ParseSourceKind parses "asset", "file" or "network". The qualified forms
// sent by older hosts ("VideoSourceType.asset") are accepted too.
func ParseSourceKind(s string) (SourceKind, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "VideoSourceType.")
	switch strings.ToLower(s) {
	case "network":
		return SourceNetwork, nil
	case "file":
		return SourceFile, nil
	case "asset":
		return SourceAsset, nil
	default:
		return 0, fmt.Errorf("unknown source kind %q", s)
	}
}

// Source is the media a controller plays. It is replaced wholesale on every
// SetSource.
type Source struct {
	ID                string
	Kind              SourceKind
	RequestAudioFocus bool
}

// Resolver turns a Source into the URI handed to the backend.
type Resolver interface {
	Resolve(src Source) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(src Source) (string, error)

// Resolve calls f(src).
func (f ResolverFunc) Resolve(src Source) (string, error) {
	return f(src)
}

// FileURIResolver rewrites asset and file identifiers into file:// references
// and passes network identifiers through unchanged. Identifiers that already
// carry a scheme are left alone.
var FileURIResolver Resolver = ResolverFunc(func(src Source) (string, error) {
	if src.ID == "" {
		return "", fmt.Errorf("empty source identifier")
	}
	if src.Kind == SourceNetwork || strings.HasPrefix(src.ID, "file://") {
		return src.ID, nil
	}
	return "file://" + src.ID, nil
})
