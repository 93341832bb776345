package imlab

import (
	"fmt"
	"image"
	"math"
)

// FromStd converts a decoded image into an Image. Gray and Gray16 sources
// become one channel (16-bit samples keep their high byte); everything else
// becomes three channels in the requested order with alpha dropped.
func FromStd(img image.Image, order ChannelOrder) Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		out := NewImage(w, h, 1)
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*w:(y+1)*w], src.Pix[off:off+w])
		}
		return out
	case *image.Gray16:
		out := NewImage(w, h, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Pix[y*w+x] = uint8(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			}
		}
		return out
	}

	out := NewImage(w, h, 3)
	out.Order = order
	nrgba, isNRGBA := img.(*image.NRGBA)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, bl uint8
			if isNRGBA {
				i := nrgba.PixOffset(b.Min.X+x, b.Min.Y+y)
				r, g, bl = nrgba.Pix[i], nrgba.Pix[i+1], nrgba.Pix[i+2]
			} else {
				r, g, bl = unpremultiply(img.At(b.Min.X+x, b.Min.Y+y).RGBA())
			}
			off := (y*w + x) * 3
			if order == BGR {
				r, bl = bl, r
			}
			out.Pix[off] = r
			out.Pix[off+1] = g
			out.Pix[off+2] = bl
		}
	}
	return out
}

// unpremultiply turns 16-bit premultiplied color into 8-bit straight color.
func unpremultiply(r, g, b, a uint32) (uint8, uint8, uint8) {
	switch a {
	case 0:
		return 0, 0, 0
	case 0xffff:
		return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
	default:
		return uint8(((r * 0xffff) / a) >> 8),
			uint8(((g * 0xffff) / a) >> 8),
			uint8(((b * 0xffff) / a) >> 8)
	}
}

// ToGray returns a single-channel copy using BT.601 luma weights. Grayscale
// input is copied as is.
func ToGray(m Image) Image {
	if m.Channels == 1 {
		return m.Clone()
	}
	out := NewImage(m.Width, m.Height, 1)
	ri, bi := 0, 2
	if m.Order == BGR {
		ri, bi = 2, 0
	}
	for i := 0; i < m.Pixels(); i++ {
		off := i * m.Channels
		out.Pix[i] = luma(m.Pix[off+ri], m.Pix[off+1], m.Pix[off+bi])
	}
	return out
}

func luma(r, g, b uint8) uint8 {
	return clampF(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
}

// clampF clamps a float64 to uint8 range [0, 255].
func clampF(x float64) uint8 {
	v := int64(math.Round(x))
	if v > MaxSample {
		return MaxSample
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

// humanBytes formats a byte count for human reading.
func humanBytes(b int64) string {
	if b == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	i := 0
	bf := float64(b)
	for bf >= 1024 && i < len(units)-1 {
		bf /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", b)
	}
	return fmt.Sprintf("%.1f %s", bf, units[i])
}

// megabytes renders a byte count as MiB with two decimals.
func megabytes(b int64) string {
	return fmt.Sprintf("%.2f MB", float64(b)/(1024*1024))
}
