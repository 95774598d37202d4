// Package loader fetches and decodes geometry containers from paths, URLs,
// data URLs, byte slices and readers.
package loader

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/internal/logger"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

// TypeWexbim is the sniffed type of a raw container.
var TypeWexbim = filetype.NewType("wexbim", "application/x-wexbim")

func init() {
	filetype.AddMatcher(TypeWexbim, func(buf []byte) bool {
		return len(buf) >= 4 && int32(binary.LittleEndian.Uint32(buf)) == wexbim.Magic
	})
}

// MaxSize caps the bytes read from a single source.
const MaxSize = 1 << 30

// Loader resolves model sources. The zero value is not usable; use New.
type Loader struct {
	Client *http.Client
	// Concurrency bounds DecodeAll. Zero means one decode per source.
	Concurrency int
	log         *zap.Logger
}

// New creates a loader with a default HTTP client.
func New() *Loader {
	return &Loader{
		Client: &http.Client{Timeout: 2 * time.Minute},
		log:    logger.Named("loader"),
	}
}

// Describe names a source for logs and events.
func Describe(src any) string {
	switch s := src.(type) {
	case string:
		if strings.HasPrefix(s, "data:") {
			return "data URL"
		}
		return s
	case []byte:
		return fmt.Sprintf("%d bytes", len(s))
	case io.Reader:
		return fmt.Sprintf("%T", s)
	}
	return fmt.Sprintf("%T", src)
}

// Fetch returns the raw bytes of src, which must be a path, an http(s) or
// data URL, a []byte or an io.Reader.
func (l *Loader) Fetch(ctx context.Context, src any) ([]byte, error) {
	switch s := src.(type) {
	case string:
		switch {
		case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
			return l.get(ctx, s)
		case strings.HasPrefix(s, "data:"):
			return decodeDataURL(s)
		}
		f, err := os.Open(s)
		if err != nil {
			return nil, fmt.Errorf("open model: %w", err)
		}
		defer f.Close()
		return readAll(f)
	case []byte:
		return s, nil
	case io.Reader:
		return readAll(s)
	case nil:
		return nil, fmt.Errorf("nil model source: %w", errs.ErrInvalidArgument)
	}
	return nil, fmt.Errorf("model source of type %T: %w", src, errs.ErrInvalidArgument)
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("model larger than %d bytes: %w", MaxSize, errs.ErrInvalidArgument)
	}
	return data, nil
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("model url %q: %v: %w", url, err, errs.ErrInvalidArgument)
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch model: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch model %s: %s: %w", url, resp.Status, errs.ErrNotFound)
	}
	l.log.Debug("model fetched", zap.String("url", url), zap.Int64("length", resp.ContentLength))
	return readAll(resp.Body)
}

func decodeDataURL(s string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL: %w", errs.ErrInvalidArgument)
	}
	if !strings.HasSuffix(meta, ";base64") {
		return []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data URL payload: %v: %w", err, errs.ErrInvalidArgument)
	}
	return data, nil
}

// Sniff reports the container type of data.
func Sniff(data []byte) types.Type {
	kind, _ := filetype.Match(data)
	return kind
}

// Parse decodes a raw or gzip-compressed container.
func Parse(data []byte) (*wexbim.Model, error) {
	switch Sniff(data) {
	case TypeWexbim:
		return wexbim.Decode(data)
	case matchers.TypeGz:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip model: %w", err)
		}
		defer zr.Close()
		raw, err := readAll(zr)
		if err != nil {
			return nil, err
		}
		if Sniff(raw) != TypeWexbim {
			return nil, fmt.Errorf("gzip payload: %w", wexbim.ErrInvalidMagic)
		}
		return wexbim.Decode(raw)
	}
	// Let the decoder report what is wrong.
	return wexbim.Decode(data)
}

// Load fetches and decodes one model.
func (l *Loader) Load(ctx context.Context, src any) (*wexbim.Model, error) {
	start := time.Now()
	data, err := l.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", Describe(src), err)
	}
	l.log.Info("model decoded",
		zap.String("source", Describe(src)),
		zap.Int("products", len(m.Products)),
		zap.Int("vertices", m.VertexCount()),
		zap.Duration("took", time.Since(start)))
	return m, nil
}

// DecodeAll loads every source concurrently. Results keep the order of
// srcs; the first failure cancels the rest.
func (l *Loader) DecodeAll(ctx context.Context, srcs []any) ([]*wexbim.Model, error) {
	out := make([]*wexbim.Model, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	if l.Concurrency > 0 {
		g.SetLimit(l.Concurrency)
	}
	for i, src := range srcs {
		g.Go(func() error {
			m, err := l.Load(gctx, src)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
