package imlab

import (
	"fmt"
	"image"
)

// Version is the library version.
const Version = "1.0.0"

const (
	// BitsPerSample is the depth of every sample held by an Image.
	BitsPerSample = 8
	// MaxSample is the largest representable sample value.
	MaxSample = 1<<BitsPerSample - 1
	// Levels is the number of distinct sample values (histogram buckets).
	Levels = MaxSample + 1
)

// ChannelOrder describes how the planes of a 3-channel Image are ordered.
type ChannelOrder int

const (
	// RGB is the display-standard order and what Go decoders produce.
	RGB ChannelOrder = iota
	// BGR matches the blue-first layout used by OpenCV.
	BGR
)

func (o ChannelOrder) String() string {
	switch o {
	case BGR:
		return "BGR"
	default:
		return "RGB"
	}
}

// Image is a height × width × channels grid of 8-bit samples stored
// interleaved in row-major order. Functions in this package never modify an
// Image they receive; transforms always allocate a new one.
type Image struct {
	Width, Height int

	// Channels is 1 for grayscale and 3 for color.
	Channels int

	// Order is meaningful only when Channels == 3.
	Order ChannelOrder

	// Pix holds the samples: Pix[(y*Width+x)*Channels+c].
	Pix []uint8
}

// NewImage allocates a zeroed image.
func NewImage(width, height, channels int) Image {
	if width < 0 || height < 0 || channels < 0 {
		panic(fmt.Sprintf("imlab: invalid image shape %dx%dx%d", width, height, channels))
	}
	return Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// At returns the sample at column x, row y, channel c.
func (m Image) At(x, y, c int) uint8 {
	return m.Pix[(y*m.Width+x)*m.Channels+c]
}

// Len is the total number of samples across all channels.
func (m Image) Len() int { return m.Width * m.Height * m.Channels }

// Pixels is the number of pixel positions (width × height).
func (m Image) Pixels() int { return m.Width * m.Height }

// ByteWidth is the storage size of one sample in bytes.
func (m Image) ByteWidth() int { return BitsPerSample / 8 }

// Empty reports whether the image holds no samples.
func (m Image) Empty() bool { return m.Len() == 0 }

// Clone returns a deep copy.
func (m Image) Clone() Image {
	out := m
	out.Pix = make([]uint8, len(m.Pix))
	copy(out.Pix, m.Pix)
	return out
}

// Equal reports whether both images have the same shape, order and samples.
func (m Image) Equal(o Image) bool {
	if m.Width != o.Width || m.Height != o.Height || m.Channels != o.Channels {
		return false
	}
	if m.Channels == 3 && m.Order != o.Order {
		return false
	}
	for i := range m.Pix {
		if m.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// Reorder returns a copy whose color planes follow order. Grayscale images
// and images already in order are copied unchanged.
func (m Image) Reorder(order ChannelOrder) Image {
	out := m.Clone()
	if m.Channels != 3 || m.Order == order {
		out.Order = order
		return out
	}
	for i := 0; i < len(out.Pix); i += 3 {
		out.Pix[i], out.Pix[i+2] = out.Pix[i+2], out.Pix[i]
	}
	out.Order = order
	return out
}

// ColorSpace names the sample layout for reports.
func (m Image) ColorSpace() string {
	switch m.Channels {
	case 1:
		return "Grayscale"
	case 3:
		if m.Order == BGR {
			return "BGR (Blue, Green, Red)"
		}
		return "RGB (Red, Green, Blue)"
	default:
		return fmt.Sprintf("%d channels", m.Channels)
	}
}

// Options configures loading and saving.
type Options struct {
	// Grayscale converts color sources to a single luma channel on load.
	Grayscale bool

	// AutoOrient applies EXIF orientation while decoding JPEG files.
	AutoOrient bool

	// Order is the channel order of loaded color images.
	Order ChannelOrder

	// JPEGQuality is used when saving .jpg/.jpeg files (1-100).
	JPEGQuality int
}

// DefaultOptions returns sensible defaults for general use.
func DefaultOptions() Options {
	return Options{
		AutoOrient:  true,
		Order:       RGB,
		JPEGQuality: 95,
	}
}

// ToStd converts the image to a standard library image for encoding or
// drawing: *image.Gray for one channel, *image.NRGBA (opaque) for three.
// BGR images are reordered to display order first.
func (m Image) ToStd() image.Image {
	rect := image.Rect(0, 0, m.Width, m.Height)
	if m.Channels == 1 {
		g := image.NewGray(rect)
		for y := 0; y < m.Height; y++ {
			copy(g.Pix[y*g.Stride:y*g.Stride+m.Width], m.Pix[y*m.Width:(y+1)*m.Width])
		}
		return g
	}

	src := m
	if m.Channels == 3 && m.Order == BGR {
		src = m.Reorder(RGB)
	}
	dst := image.NewNRGBA(rect)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			so := (y*m.Width + x) * m.Channels
			do := y*dst.Stride + x*4
			for c := 0; c < 3 && c < m.Channels; c++ {
				dst.Pix[do+c] = src.Pix[so+c]
			}
			dst.Pix[do+3] = 0xff
		}
	}
	return dst
}
