package report

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/countrycache/countrycache/internal/country"
	"github.com/countrycache/countrycache/pkg/logger"
)

const (
	DefaultDir  = "cache"
	DefaultFile = "summary.png"
)

// Source is the read side of the store the report needs.
type Source interface {
	Stats(ctx context.Context) (country.Stats, error)
	List(ctx context.Context, f country.Filter) ([]*country.Country, error)
}

// Mirror receives a copy of every generated image, e.g. an object store bucket.
type Mirror interface {
	UploadFile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// Generator renders the summary chart to a fixed path, replacing any previous one.
type Generator struct {
	src    Source
	dir    string
	file   string
	mirror Mirror

	mu sync.Mutex
}

func NewGenerator(src Source, dir, file string) *Generator {
	if dir == "" {
		dir = DefaultDir
	}
	if file == "" {
		file = DefaultFile
	}
	return &Generator{src: src, dir: dir, file: file}
}

// WithMirror enables uploading each generated image. Mirror failures are logged only.
func (g *Generator) WithMirror(m Mirror) *Generator {
	g.mirror = m
	return g
}

// Path is where the latest image lives.
func (g *Generator) Path() string {
	return filepath.Join(g.dir, g.file)
}

// Generate reads the current aggregates and writes a fresh image.
func (g *Generator) Generate(ctx context.Context) error {
	st, err := g.src.Stats(ctx)
	if err != nil {
		return fmt.Errorf("report stats: %w", err)
	}
	top, err := g.src.List(ctx, country.Filter{Sort: country.SortGDPDesc, Limit: TopN})
	if err != nil {
		return fmt.Errorf("report top countries: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Render(Summary{Total: st.Total, LastRefreshedAt: st.LastRefreshedAt, Top: top})); err != nil {
		return fmt.Errorf("report encode: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.write(buf.Bytes()); err != nil {
		return err
	}

	if g.mirror != nil {
		if err := g.mirror.UploadFile(ctx, g.file, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/png"); err != nil {
			logger.Warnf("report: mirror upload of %s failed: %v", g.file, err)
		}
	}
	return nil
}

// write replaces the image via temp file + rename so readers never see a partial file.
func (g *Generator) write(data []byte) error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("report dir: %w", err)
	}
	tmp, err := os.CreateTemp(g.dir, ".summary-*.png")
	if err != nil {
		return fmt.Errorf("report temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("report write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("report close: %w", err)
	}
	if err := os.Rename(tmp.Name(), g.Path()); err != nil {
		return fmt.Errorf("report rename: %w", err)
	}
	return nil
}
