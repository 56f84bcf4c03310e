package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrInvalidImage wraps every rejection of an uploaded image.
var ErrInvalidImage = errors.New("invalid image")

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// ImageRules bounds what SaveImage accepts. Images larger than MaxDimension
// on either side are scaled down to fit; zero disables the resize.
// MaxPixels caps width*height before any pixel is decoded.
type ImageRules struct {
	MaxBytes     int64
	MaxDimension int
	MaxPixels    int64
}

type StoredImage struct {
	Key         string
	ContentType string
	Width       int
	Height      int
	Size        int64
}

// AllowedImageExt reports whether the filename has an accepted image extension.
func AllowedImageExt(filename string) bool {
	_, ok := imageTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// SaveImage validates an upload, downscales it when needed and writes it
// under a fresh key for entity.
func SaveImage(ctx context.Context, st Store, entity, filename string, r io.Reader, rules ImageRules) (*StoredImage, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := imageTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInvalidImage, ext)
	}

	src := r
	if rules.MaxBytes > 0 {
		src = io.LimitReader(r, rules.MaxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if rules.MaxBytes > 0 && int64(len(data)) > rules.MaxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidImage, rules.MaxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidImage)
	}

	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if rules.MaxPixels > 0 && int64(hdr.Width)*int64(hdr.Height) > rules.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, hdr.Width, hdr.Height, rules.MaxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	b := img.Bounds()
	if limit := rules.MaxDimension; limit > 0 && (b.Dx() > limit || b.Dy() > limit) {
		data, img, err = downscale(img, ext, limit)
		if err != nil {
			return nil, err
		}
		b = img.Bounds()
	}

	key := NewKey(entity, ext)
	if err := st.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	return &StoredImage{
		Key:         key,
		ContentType: contentType,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Size:        int64(len(data)),
	}, nil
}

func downscale(img image.Image, ext string, limit int) ([]byte, image.Image, error) {
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	small := imaging.Fit(img, limit, limit, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, small, format, imaging.JPEGQuality(85)); err != nil {
		return nil, nil, fmt.Errorf("encode resized image: %w", err)
	}
	return buf.Bytes(), small, nil
}

// Placeholder renders a solid colour PNG, used for seeding and tests.
func Placeholder(w, h int, c [3]uint8) []byte {
	img := imaging.New(w, h, color.NRGBA{R: c[0], G: c[1], B: c[2], A: 255})
	var buf bytes.Buffer
	_ = imaging.Encode(&buf, img, imaging.PNG)
	return buf.Bytes()
}
