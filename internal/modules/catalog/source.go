package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/aristath/lcdash/pkg/embedded"
)

// Source supplies the raw YAML catalog document.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

// EmbeddedSource reads the catalog compiled into the binary.
type EmbeddedSource struct {
	FS   fs.FS
	Path string
}

// NewEmbeddedSource returns the default catalog source.
func NewEmbeddedSource() *EmbeddedSource {
	return &EmbeddedSource{FS: embedded.Files, Path: embedded.CatalogPath}
}

func (s *EmbeddedSource) Name() string { return "embedded:" + s.Path }

func (s *EmbeddedSource) Fetch(ctx context.Context) ([]byte, error) {
	return fs.ReadFile(s.FS, s.Path)
}

// FileSource reads a catalog from the local filesystem.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	return os.ReadFile(s.Path)
}

// Load fetches and parses a catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog from %s: %w", src.Name(), err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", src.Name(), err)
	}
	return c, nil
}

// Default loads the embedded catalog.
func Default() (*Catalog, error) {
	return Load(context.Background(), NewEmbeddedSource())
}

// SourceConfig selects where the catalog comes from. S3 wins over Path; with
// neither set the embedded catalog is used.
type SourceConfig struct {
	Path string
	S3   S3Config
}

// Resolve picks the configured source and loads the catalog from it.
func Resolve(ctx context.Context, cfg SourceConfig, log zerolog.Logger) (*Catalog, error) {
	var src Source
	switch {
	case cfg.S3.URI != "":
		s3src, err := NewS3Source(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		src = s3src
	case cfg.Path != "":
		src = &FileSource{Path: cfg.Path}
	default:
		src = NewEmbeddedSource()
	}

	c, err := Load(ctx, src)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("source", src.Name()).
		Int("regions", len(c.Regions)).
		Int("offices", len(c.Offices)).
		Int("purposes", len(c.Purposes)).
		Int("sub_grades", len(c.SubGrades)).
		Msg("Reference catalog loaded")
	return c, nil
}
