// Package ingestion validates user-selected photos and turns them into the
// base64 payload sent to the detector and the data-URL preview shown back to
// the visitor.
package ingestion

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"

	apperrors "fursaver-site/internal/errors"
)

// InvalidImageMessage is the inline message shown for a rejected upload.
const InvalidImageMessage = "Please select a valid image file."

const unsupportedFormatMessage = "Unsupported image format. Please upload a JPG, PNG, GIF or WebP photo."

// DefaultMaxPixels caps the decoded area of a single upload. The byte limit
// alone does not bound memory: a small compressed file can declare a huge
// bitmap.
const DefaultMaxPixels = 40_000_000

// Image is an accepted upload.
type Image struct {
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	// Preview is a data URL suitable for an <img src>.
	Preview string `json:"preview"`
	// Payload is the bare base64 body sent to the detection endpoint.
	Payload string `json:"-"`
	Hints   []Hint `json:"hints,omitempty"`
}

// Ingester accepts uploads up to maxSize bytes and maxPixels in area.
// Full decodes share a pixel budget so concurrent uploads cannot hold more
// than maxPixels worth of bitmaps at once.
type Ingester struct {
	maxSize   int64
	maxPixels int64
	decoding  *semaphore.Weighted
	checker   *QualityChecker
}

func NewIngester(maxSize int64) *Ingester {
	return &Ingester{
		maxSize:   maxSize,
		maxPixels: DefaultMaxPixels,
		decoding:  semaphore.NewWeighted(DefaultMaxPixels),
		checker:   NewQualityChecker(DefaultQualityThresholds()),
	}
}

// SelectImage reads an upload whose browser-declared content type is
// declaredType. Anything not declared as image/*, or whose bytes are not a
// decodable image, is rejected with an image_type error. Dimensions are read
// from the header first; oversized images are refused without decoding.
func (i *Ingester) SelectImage(ctx context.Context, r io.Reader, filename, declaredType string) (*Image, error) {
	if !isImageType(declaredType) {
		return nil, apperrors.NewImageTypeError(InvalidImageMessage,
			fmt.Errorf("declared content type %q is not an image", declaredType))
	}

	data, err := io.ReadAll(io.LimitReader(r, i.maxSize+1))
	if err != nil {
		return nil, apperrors.NewValidationError("failed to read upload", err)
	}
	if int64(len(data)) > i.maxSize {
		return nil, apperrors.NewTooLargeError(fmt.Sprintf("Image is larger than the %s limit.", humanSize(i.maxSize)))
	}
	if len(data) == 0 {
		return nil, apperrors.NewImageTypeError(InvalidImageMessage, fmt.Errorf("upload is empty"))
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, apperrors.NewImageTypeError(InvalidImageMessage,
			fmt.Errorf("content sniffed as %s", detected.String()))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewImageTypeError(unsupportedFormatMessage, err)
	}
	pixels := int64(cfg.Width) * int64(cfg.Height)
	if pixels > i.maxPixels {
		return nil, apperrors.NewTooLargeError(fmt.Sprintf(
			"Image dimensions %dx%d are too large. Please upload a photo under %d megapixels.",
			cfg.Width, cfg.Height, i.maxPixels/1_000_000))
	}

	hints, err := i.decode(ctx, data, max(pixels, 1))
	if err != nil {
		return nil, err
	}

	// registered decoder names match their MIME subtypes
	contentType := "image/" + format
	payload := base64.StdEncoding.EncodeToString(data)

	return &Image{
		Filename:    filename,
		ContentType: contentType,
		Size:        len(data),
		Width:       cfg.Width,
		Height:      cfg.Height,
		Preview:     "data:" + contentType + ";base64," + payload,
		Payload:     payload,
		Hints:       hints,
	}, nil
}

// decode verifies the whole image decodes and computes the photo hints while
// holding weight pixels of the decode budget.
func (i *Ingester) decode(ctx context.Context, data []byte, weight int64) ([]Hint, error) {
	if err := i.decoding.Acquire(ctx, weight); err != nil {
		return nil, apperrors.NewTimeoutError("The server is busy processing other photos. Please try again.", err)
	}
	defer i.decoding.Release(weight)

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewImageTypeError(unsupportedFormatMessage, err)
	}
	return i.checker.Check(img), nil
}

func isImageType(declared string) bool {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(declared))
	}
	return strings.HasPrefix(mediaType, "image/")
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
