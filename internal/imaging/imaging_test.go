package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeTestImage(t *testing.T, width, height int, asPNG bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	var err error
	if asPNG {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizePassthrough(t *testing.T) {
	data := encodeTestImage(t, 100, 80, false)
	out, err := Normalize(data, 200)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("image within bounds should be returned unchanged")
	}
}

func TestNormalizeResizesLargeImage(t *testing.T) {
	data := encodeTestImage(t, 400, 200, true)
	out, err := Normalize(data, 100)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("output format = %q, want jpeg", format)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Errorf("output size = %dx%d, want 100x50", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestNormalizeTallImage(t *testing.T) {
	data := encodeTestImage(t, 200, 400, false)
	out, err := Normalize(data, 100)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 100 {
		t.Errorf("output size = %dx%d, want 50x100", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize([]byte("definitely not an image"), 100); err == nil {
		t.Fatal("expected decode error")
	}
}
