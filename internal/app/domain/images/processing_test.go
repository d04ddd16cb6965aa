package images

import (
	"bytes"
	"encoding/hex"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
	"github.com/FACorreiaa/dealerflow/internal/pkg/config"
)

func testUploadsCfg(t *testing.T) config.UploadsConfig {
	t.Helper()
	return config.UploadsConfig{
		BaseDir:     t.TempDir(),
		MaxFileSize: 10 * 1024 * 1024,
		MaxWidth:    1200,
		MaxHeight:   800,
		JPEGQuality: 85,
	}
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)), nil))
	return buf.Bytes()
}

func TestExtOf(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"photo.JPG", ".jpg"},
		{"https://cdn.example.com/cars/pic.jpeg?w=1200", ".jpeg"},
		{"banner.webp#gallery", ".webp"},
		{"no-extension", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extOf(tt.name), tt.name)
	}
}

func TestValidateFile(t *testing.T) {
	assert.NoError(t, validateFile("car.png", 100, 1000))
	assert.NoError(t, validateFile("https://cdn.example.com/photo.jpg?x=1", 100, 1000))

	err := validateFile("brochure.pdf", 100, 1000)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "not allowed")

	err = validateFile("README", 100, 1000)
	assert.ErrorIs(t, err, models.ErrValidation)

	err = validateFile("car.jpg", 2000, 1000)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "too large")
}

func TestNormalizeImageShrinksOversize(t *testing.T) {
	cfg := testUploadsCfg(t)

	tests := []struct {
		inW, inH     int
		wantW, wantH int
	}{
		{2400, 1600, 1200, 800},
		{1600, 1600, 800, 800},
		{2000, 500, 1200, 300},
	}
	for _, tt := range tests {
		processed, err := normalizeImage(pngBytes(t, tt.inW, tt.inH), ".png", cfg)
		require.NoError(t, err)
		assert.Equal(t, tt.wantW, processed.width)
		assert.Equal(t, tt.wantH, processed.height)
		assert.Equal(t, ".png", processed.ext)
		assert.Equal(t, "image/png", processed.mime)

		decoded, _, err := image.DecodeConfig(bytes.NewReader(processed.data))
		require.NoError(t, err)
		assert.Equal(t, tt.wantW, decoded.Width)
		assert.Equal(t, tt.wantH, decoded.Height)
	}
}

func TestNormalizeImageKeepsSmall(t *testing.T) {
	processed, err := normalizeImage(jpegBytes(t, 640, 480), ".jpg", testUploadsCfg(t))

	require.NoError(t, err)
	assert.Equal(t, 640, processed.width)
	assert.Equal(t, 480, processed.height)
	assert.Equal(t, ".jpg", processed.ext)
	assert.Equal(t, "image/jpeg", processed.mime)
}

func TestNormalizeImageConvertsToJPEG(t *testing.T) {
	// Anything that is not PNG comes out as JPEG, whatever it arrived as.
	processed, err := normalizeImage(pngBytes(t, 20, 20), ".gif", testUploadsCfg(t))

	require.NoError(t, err)
	assert.Equal(t, ".jpg", processed.ext)
	assert.Equal(t, "image/jpeg", processed.mime)

	_, format, err := image.DecodeConfig(bytes.NewReader(processed.data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	_, err := normalizeImage([]byte("not an image at all"), ".jpg", testUploadsCfg(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding image")
}

func TestUniqueFilename(t *testing.T) {
	f1 := uniqueFilename(".jpg")
	f2 := uniqueFilename(".jpg")

	assert.Len(t, f1, 32+len(".jpg"))
	assert.True(t, strings.HasSuffix(f1, ".jpg"))
	assert.NotEqual(t, f1, f2)

	_, err := hex.DecodeString(strings.TrimSuffix(f1, ".jpg"))
	assert.NoError(t, err)
}

func TestWriteImageFile(t *testing.T) {
	base := t.TempDir()

	path, err := writeImageFile(base, scrapedSubdir, "abc.jpg", []byte("image-bytes"))

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "scraped", "abc.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)

	// Directory creation is idempotent.
	_, err = writeImageFile(base, scrapedSubdir, "def.jpg", []byte("more"))
	assert.NoError(t, err)
}
