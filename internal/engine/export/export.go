// Package export encodes rendered frames as portable raster images.
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/xviewer/internal/engine/errs"
)

// Format is an image encoding.
type Format uint8

const (
	PNG Format = iota
	BMP
	TIFF
)

var formatNames = [...]string{"png", "bmp", "tiff"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// MIME returns the media type of f.
func (f Format) MIME() string {
	return "image/" + f.String()
}

// ParseFormat accepts a format name or file extension, with or without
// the leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png", "":
		return PNG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	}
	return PNG, fmt.Errorf("image format %q: %w", s, errs.ErrInvalidArgument)
}

// FromGL turns pixels read back from OpenGL, rows bottom-up, into a
// top-down image.
func FromGL(img image.Image) *image.RGBA {
	return transform.FlipV(img)
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("image format %v: %w", f, errs.ErrInvalidArgument)
}

// DataURL encodes img as a base64 data URL.
func DataURL(img image.Image, f Format) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f); err != nil {
		return "", err
	}
	return "data:" + f.MIME() + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ScreenshotCapture writes timestamped image files.
type ScreenshotCapture struct {
	outputDir string
	prefix    string
	format    Format
	now       func() time.Time
}

// NewScreenshotCapture creates a new screenshot capture handler.
func NewScreenshotCapture(outputDir, prefix string, f Format) *ScreenshotCapture {
	return &ScreenshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
		format:    f,
		now:       time.Now,
	}
}

// GenerateFilename generates a screenshot filename without saving.
func (sc *ScreenshotCapture) GenerateFilename() string {
	timestamp := sc.now().Format("2006-01-02_15-04-05.000")
	filename := fmt.Sprintf("%s_%s.%s", sc.prefix, timestamp, sc.format)
	if sc.outputDir != "" {
		filename = filepath.Join(sc.outputDir, filename)
	}
	return filename
}

// Capture saves img and returns the file name.
func (sc *ScreenshotCapture) Capture(img image.Image) (string, error) {
	if sc.outputDir != "" {
		if err := os.MkdirAll(sc.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := sc.GenerateFilename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := Encode(file, img, sc.format); err != nil {
		return "", fmt.Errorf("encoding %s: %w", sc.format, err)
	}
	return filename, nil
}
