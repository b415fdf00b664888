// Package capture converts render target readbacks into standard
// library images and writes them to disk.
//
// Readbacks arrive in the target's native pixel order (commonly BGRA)
// with rows padded to the backend's copy alignment. Image strips the
// padding and swizzles to RGBA; SavePNG and ContactSheet cover the
// usual dump-frames-while-debugging workflow.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/gputypes"

	"github.com/FairlyBet/wgpurenderer"
)

// Image converts a target readback into an RGBA image, stripping any
// per-row alignment padding. BGRA8 and RGBA8 targets are supported;
// other formats return an error. A zero Stride is treated as tightly
// packed rows.
func Image(px *wgpurenderer.TargetPixels) (*image.RGBA, error) {
	if px == nil {
		return nil, errors.New("capture: no pixels")
	}
	w, h := px.Width, px.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("capture: invalid dimensions %dx%d", w, h)
	}

	var swap bool
	switch px.Format {
	case gputypes.TextureFormatBGRA8Unorm:
		swap = true
	case gputypes.TextureFormatRGBA8Unorm:
		swap = false
	default:
		return nil, fmt.Errorf("capture: unsupported target format %v", px.Format)
	}

	rowBytes := w * 4
	stride := px.Stride
	if stride == 0 {
		stride = rowBytes
	}
	if stride < rowBytes {
		return nil, fmt.Errorf("capture: stride %d shorter than row (%d bytes)", stride, rowBytes)
	}
	if need := stride*(h-1) + rowBytes; len(px.Data) < need {
		return nil, fmt.Errorf("capture: pixel data truncated: have %d bytes, need %d", len(px.Data), need)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for row := 0; row < h; row++ {
		src := px.Data[row*stride : row*stride+rowBytes]
		dst := img.Pix[row*img.Stride : row*img.Stride+rowBytes]
		if swap {
			convertBGRAToRGBA(src, dst, w)
		} else {
			copy(dst, src)
		}
	}
	return img, nil
}

// convertBGRAToRGBA swizzles 4-byte BGRA pixels from src into RGBA
// order in dst. Both slices must hold at least pixels*4 bytes.
func convertBGRAToRGBA(src, dst []byte, pixels int) {
	for i := 0; i < pixels*4; i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
}

// SavePNG writes img to path as a PNG file, creating parent
// directories as needed.
func SavePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// ContactSheet composites frames into a single grid image, scaling
// each frame to a tileW by tileH cell. Frames fill the grid row by
// row; columns at or below zero lays all frames out in one row. Cells
// past the last frame stay transparent.
func ContactSheet(frames []image.Image, columns, tileW, tileH int) *image.RGBA {
	if len(frames) == 0 || tileW <= 0 || tileH <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	if columns <= 0 || columns > len(frames) {
		columns = len(frames)
	}
	rows := (len(frames) + columns - 1) / columns
	sheet := image.NewRGBA(image.Rect(0, 0, columns*tileW, rows*tileH))
	for i, frame := range frames {
		if frame == nil {
			continue
		}
		x := (i % columns) * tileW
		y := (i / columns) * tileH
		cell := image.Rect(x, y, x+tileW, y+tileH)
		xdraw.CatmullRom.Scale(sheet, cell, frame, frame.Bounds(), xdraw.Src, nil)
	}
	return sheet
}
