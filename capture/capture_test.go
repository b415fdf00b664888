package capture

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/FairlyBet/wgpurenderer"
)

func TestImageStripsRowPadding(t *testing.T) {
	const w, h, stride = 2, 2, 256
	data := make([]uint8, stride*(h-1)+w*4)
	// Row 0, BGRA order: pure blue, then pure green at half alpha.
	copy(data[0:8], []uint8{
		0xFF, 0x00, 0x00, 0xFF,
		0x00, 0xFF, 0x00, 0x80,
	})
	// Row 1 starts at the stride boundary, past the padding.
	copy(data[stride:stride+8], []uint8{
		0x00, 0x00, 0xFF, 0xFF,
		0x10, 0x20, 0x30, 0x40,
	})

	img, err := Image(&wgpurenderer.TargetPixels{
		Data:   data,
		Width:  w,
		Height: h,
		Stride: stride,
		Format: gputypes.TextureFormatBGRA8Unorm,
	})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if got := img.Bounds(); got.Dx() != w || got.Dy() != h {
		t.Fatalf("bounds = %v, want %dx%d", got, w, h)
	}

	want := []uint8{
		0x00, 0x00, 0xFF, 0xFF,
		0x00, 0xFF, 0x00, 0x80,
		0xFF, 0x00, 0x00, 0xFF,
		0x30, 0x20, 0x10, 0x40,
	}
	for i, v := range want {
		if img.Pix[i] != v {
			t.Errorf("Pix[%d] = %#02x, want %#02x", i, img.Pix[i], v)
		}
	}
}

func TestImageRGBAPassthrough(t *testing.T) {
	data := []uint8{
		0x11, 0x22, 0x33, 0x44,
		0x55, 0x66, 0x77, 0x88,
	}
	img, err := Image(&wgpurenderer.TargetPixels{
		Data:   data,
		Width:  2,
		Height: 1,
		Stride: 8,
		Format: gputypes.TextureFormatRGBA8Unorm,
	})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	for i, v := range data {
		if img.Pix[i] != v {
			t.Errorf("Pix[%d] = %#02x, want %#02x", i, img.Pix[i], v)
		}
	}
}

func TestImageRejectsTruncatedData(t *testing.T) {
	_, err := Image(&wgpurenderer.TargetPixels{
		Data:   make([]uint8, 16),
		Width:  4,
		Height: 4,
		Stride: 16,
		Format: gputypes.TextureFormatBGRA8Unorm,
	})
	if err == nil {
		t.Fatal("expected error for truncated pixel data")
	}
}

func TestImageRejectsUnknownFormat(t *testing.T) {
	_, err := Image(&wgpurenderer.TargetPixels{
		Data:   make([]uint8, 4),
		Width:  1,
		Height: 1,
		Stride: 4,
		Format: gputypes.TextureFormatDepth24PlusStencil8,
	})
	if err == nil {
		t.Fatal("expected error for non-color format")
	}
}

func TestConvertBGRAToRGBA(t *testing.T) {
	src := []byte{
		0x01, 0x02, 0x03, 0x04,
		0xD0, 0xC0, 0xB0, 0xA0,
	}
	dst := make([]byte, 8)
	convertBGRAToRGBA(src, dst, 2)

	want := []byte{
		0x03, 0x02, 0x01, 0x04,
		0xB0, 0xC0, 0xD0, 0xA0,
	}
	for i, v := range want {
		if dst[i] != v {
			t.Errorf("dst[%d] = %#02x, want %#02x", i, dst[i], v)
		}
	}
}

func TestContactSheet(t *testing.T) {
	red := image.NewRGBA(image.Rect(0, 0, 4, 4))
	green := image.NewRGBA(image.Rect(0, 0, 6, 6))
	blue := image.NewRGBA(image.Rect(0, 0, 4, 8))
	fillRGBA(red, 0xFF, 0x00, 0x00)
	fillRGBA(green, 0x00, 0xFF, 0x00)
	fillRGBA(blue, 0x00, 0x00, 0xFF)

	sheet := ContactSheet([]image.Image{red, green, blue}, 2, 8, 8)
	if got := sheet.Bounds(); got.Dx() != 16 || got.Dy() != 16 {
		t.Fatalf("sheet bounds = %v, want 16x16", got)
	}

	checks := []struct {
		x, y    int
		r, g, b uint8
	}{
		{4, 4, 0xFF, 0x00, 0x00},
		{12, 4, 0x00, 0xFF, 0x00},
		{4, 12, 0x00, 0x00, 0xFF},
	}
	for _, c := range checks {
		px := sheet.RGBAAt(c.x, c.y)
		if px.R != c.r || px.G != c.g || px.B != c.b {
			t.Errorf("tile center (%d,%d) = %v, want {%d %d %d 255}", c.x, c.y, px, c.r, c.g, c.b)
		}
	}

	// The fourth cell holds no frame and stays transparent.
	if px := sheet.RGBAAt(12, 12); px.A != 0 {
		t.Errorf("empty cell = %v, want transparent", px)
	}
}

func TestContactSheetSingleRow(t *testing.T) {
	frames := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 2, 2)),
		image.NewRGBA(image.Rect(0, 0, 2, 2)),
		image.NewRGBA(image.Rect(0, 0, 2, 2)),
	}
	sheet := ContactSheet(frames, 0, 10, 6)
	if got := sheet.Bounds(); got.Dx() != 30 || got.Dy() != 6 {
		t.Fatalf("sheet bounds = %v, want 30x6", got)
	}
}

func TestSavePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	fillRGBA(img, 0x20, 0x40, 0x80)

	path := filepath.Join(t.TempDir(), "frames", "out.png")
	if err := SavePNG(path, img); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open saved file: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode saved file: %v", err)
	}
	if got := decoded.Bounds(); got.Dx() != 3 || got.Dy() != 2 {
		t.Errorf("decoded bounds = %v, want 3x2", got)
	}
}

func fillRGBA(img *image.RGBA, r, g, b uint8) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 0xFF
	}
}
