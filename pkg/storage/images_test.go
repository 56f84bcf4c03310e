package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"os"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveImage(t *testing.T) {
	ctx := context.Background()
	rules := ImageRules{MaxBytes: 1 << 20, MaxDimension: 64}

	tests := []struct {
		name     string
		filename string
		data     []byte
		wantErr  bool
		wantW    int
		wantH    int
	}{
		{name: "small png kept", filename: "a.png", data: Placeholder(20, 10, [3]uint8{200, 0, 0}), wantW: 20, wantH: 10},
		{name: "large png fitted", filename: "b.PNG", data: Placeholder(256, 128, [3]uint8{0, 200, 0}), wantW: 64, wantH: 32},
		{name: "unsupported extension", filename: "c.bmp", data: Placeholder(4, 4, [3]uint8{}), wantErr: true},
		{name: "not an image", filename: "d.jpg", data: []byte("plain text"), wantErr: true},
		{name: "empty", filename: "e.png", data: nil, wantErr: true},
		{name: "too many bytes", filename: "f.png", data: bytes.Repeat([]byte{1}, (1<<20)+1), wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, err := NewLocalStore(t.TempDir())
			require.NoError(t, err)

			img, err := SaveImage(ctx, st, "relics", tc.filename, bytes.NewReader(tc.data), rules)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidImage)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(img.Key, "relics/"))
			assert.Equal(t, "image/png", img.ContentType)
			assert.Equal(t, tc.wantW, img.Width)
			assert.Equal(t, tc.wantH, img.Height)

			rc, err := st.Open(ctx, img.Key)
			require.NoError(t, err)
			defer rc.Close()
			decoded, err := imaging.Decode(rc)
			require.NoError(t, err)
			assert.Equal(t, tc.wantW, decoded.Bounds().Dx())
		})
	}
}

// oversizedPNG returns a valid 1x1 PNG whose header claims w x h pixels.
func oversizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := Placeholder(1, 1, [3]uint8{})
	// signature (8) + IHDR length (4) + "IHDR" (4), then width and height
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestSaveImage_PixelLimit(t *testing.T) {
	ctx := context.Background()
	rules := ImageRules{MaxBytes: 5 << 20, MaxDimension: 64, MaxPixels: 100_000}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "header claims 100000x100000", data: oversizedPNG(t, 100_000, 100_000)},
		{name: "decodable but too many pixels", data: Placeholder(400, 300, [3]uint8{1, 2, 3})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			st, err := NewLocalStore(dir)
			require.NoError(t, err)

			_, err = SaveImage(ctx, st, "relics", "huge.png", bytes.NewReader(tc.data), rules)
			require.ErrorIs(t, err, ErrInvalidImage)
			assert.ErrorContains(t, err, "exceeds 100000 pixels")

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}

	st, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	img, err := SaveImage(ctx, st, "relics", "ok.png", bytes.NewReader(Placeholder(300, 300, [3]uint8{})), rules)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Width)
}

func TestAllowedImageExt(t *testing.T) {
	assert.True(t, AllowedImageExt("x.JPG"))
	assert.True(t, AllowedImageExt("x.gif"))
	assert.False(t, AllowedImageExt("x.webp"))
	assert.False(t, AllowedImageExt("noext"))
}
