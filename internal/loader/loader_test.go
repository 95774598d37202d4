package loader

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/h2non/filetype/matchers"

	"github.com/Faultbox/xviewer/internal/engine/errs"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

func encoded(t *testing.T, ids ...int32) []byte {
	t.Helper()
	b := wexbim.NewBuilder(1000)
	for i, id := range ids {
		x := float32(i)
		b.AddBox(id, wexbim.TypeWall, [3]float32{x, 0, 0}, [3]float32{x + 1, 1, 1}, [4]uint8{1, 2, 3, 255})
	}
	data, err := wexbim.Encode(b.Build())
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(data)
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	raw := encoded(t, 1)
	if got := Sniff(raw); got != TypeWexbim {
		t.Errorf("Sniff(raw) = %v", got)
	}
	if got := Sniff(gzipped(t, raw)); got != matchers.TypeGz {
		t.Errorf("Sniff(gzip) = %v", got)
	}
}

func TestLoadSources(t *testing.T) {
	raw := encoded(t, 10, 20)
	path := filepath.Join(t.TempDir(), "model.wexbim")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}
	gzPath := filepath.Join(t.TempDir(), "model.wexbim.gz")
	if err := os.WriteFile(gzPath, gzipped(t, raw), 0644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/model.wexbim" {
			http.NotFound(w, r)
			return
		}
		w.Write(raw)
	}))
	defer srv.Close()

	tests := []struct {
		name string
		src  any
	}{
		{"path", path},
		{"gzip path", gzPath},
		{"bytes", raw},
		{"reader", bytes.NewReader(raw)},
		{"url", srv.URL + "/model.wexbim"},
		{"data url", "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(raw)},
	}

	l := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := l.Load(context.Background(), tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if len(m.Products) != 2 || m.Products[1].ID != 20 {
				t.Errorf("products = %+v", m.Products)
			}
		})
	}

	if _, err := l.Load(context.Background(), srv.URL+"/missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing url err = %v", err)
	}
}

func TestLoadRejects(t *testing.T) {
	l := New()
	tests := []struct {
		name string
		src  any
		want error
	}{
		{"int", 42, errs.ErrInvalidArgument},
		{"nil", nil, errs.ErrInvalidArgument},
		{"bad data url", "data:nothing", errs.ErrInvalidArgument},
		{"garbage", bytes.Repeat([]byte("x"), 64), wexbim.ErrInvalidMagic},
		{"gzip garbage", gzipped(t, []byte("nope nope")), wexbim.ErrInvalidMagic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.Load(context.Background(), tt.src); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Load(ctx, encoded(t, 1)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestDecodeAllKeepsOrder(t *testing.T) {
	l := New()
	l.Concurrency = 2
	srcs := []any{encoded(t, 1), encoded(t, 2, 3), encoded(t, 4, 5, 6)}
	models, err := l.DecodeAll(context.Background(), srcs)
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range models {
		if len(m.Products) != i+1 {
			t.Errorf("model %d has %d products", i, len(m.Products))
		}
	}

	srcs = append(srcs, 7)
	if _, err := l.DecodeAll(context.Background(), srcs); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("err = %v", err)
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe("data:x;base64,AAAA"); got != "data URL" {
		t.Errorf("Describe = %q", got)
	}
	if got := Describe([]byte{1, 2}); got != "2 bytes" {
		t.Errorf("Describe = %q", got)
	}
	if got := Describe(strings.NewReader("")); got != "*strings.Reader" {
		t.Errorf("Describe = %q", got)
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.wexbim")
	other := filepath.Join(dir, "b.wexbim")
	os.WriteFile(path, []byte("v1"), 0644)

	w, err := NewWatcher()
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()
	w.Settle = 20 * time.Millisecond
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}

	os.WriteFile(other, []byte("ignored"), 0644)
	os.WriteFile(path, []byte("v2"), 0644)
	os.WriteFile(path, []byte("v3"), 0644)

	want, _ := filepath.Abs(path)
	select {
	case got := <-w.Changed():
		if got != want {
			t.Errorf("changed = %s, want %s", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case got := <-w.Changed():
		t.Errorf("writes were not coalesced, extra change %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}
