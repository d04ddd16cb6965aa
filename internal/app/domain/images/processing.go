package images

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
	"github.com/FACorreiaa/dealerflow/internal/pkg/config"
)

// Subdirectories under the uploads base dir, split by how the photo arrived.
const (
	uploadSubdir  = "images"
	scrapedSubdir = "scraped"
	dmsSubdir     = "dms"
)

// allowedExtensions is the shared allow list for uploads and scraped photos.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// extOf pulls a lowercased extension out of a filename or URL, querystring
// and fragment stripped.
func extOf(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(filepath.Ext(name))
}

// validateFile enforces the extension allow list and the size ceiling.
func validateFile(filename string, size, maxSize int64) error {
	if ext := extOf(filename); !allowedExtensions[ext] {
		return fmt.Errorf("file type %q not allowed: %w", ext, models.ErrValidation)
	}
	if size > maxSize {
		return fmt.Errorf("file too large, maximum size %dMB: %w", maxSize/(1024*1024), models.ErrValidation)
	}
	return nil
}

// processedImage is a normalized photo ready to be written out.
type processedImage struct {
	data   []byte
	ext    string
	mime   string
	width  int
	height int
}

// normalizeImage decodes a photo, shrinks anything over the configured
// bounding box and re-encodes it. Everything comes out as JPEG except PNG,
// which keeps its alpha channel. WebP decodes through the blank import; with
// no encoder available it is re-encoded as JPEG like the rest.
func normalizeImage(data []byte, originalExt string, cfg config.UploadsConfig) (*processedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	if b := img.Bounds(); b.Dx() > cfg.MaxWidth || b.Dy() > cfg.MaxHeight {
		img = imaging.Fit(img, cfg.MaxWidth, cfg.MaxHeight, imaging.Lanczos)
	}

	format, ext, mime := imaging.JPEG, ".jpg", "image/jpeg"
	if originalExt == ".png" {
		format, ext, mime = imaging.PNG, ".png", "image/png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(cfg.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	b := img.Bounds()
	return &processedImage{
		data:   buf.Bytes(),
		ext:    ext,
		mime:   mime,
		width:  b.Dx(),
		height: b.Dy(),
	}, nil
}

// uniqueFilename is 32 hex chars plus the normalized extension, so stored
// names never collide or leak the original name.
func uniqueFilename(ext string) string {
	id := uuid.New()
	return hex.EncodeToString(id[:]) + ext
}

// writeImageFile stores normalized bytes under baseDir/subdir, creating the
// directory on first use.
func writeImageFile(baseDir, subdir, filename string, data []byte) (string, error) {
	dir := filepath.Join(baseDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing image file: %w", err)
	}
	return path, nil
}
