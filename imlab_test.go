package imlab

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ── Test Helpers ────────────────────────────────────────────────────────────

func grayFrom(w, h int, values ...uint8) Image {
	img := NewImage(w, h, 1)
	copy(img.Pix, values)
	return img
}

func makeGradient(w, h, channels int) Image {
	img := NewImage(w, h, channels)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * channels
			for c := 0; c < channels; c++ {
				img.Pix[off+c] = uint8((x*255/max(w-1, 1) + c*40 + y) % 256)
			}
		}
	}
	return img
}

func makeUniform(w, h int, v uint8) Image {
	img := NewImage(w, h, 1)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// writePNG encodes img into dir and returns its path.
func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// ── Image ───────────────────────────────────────────────────────────────────

func TestImageShape(t *testing.T) {
	img := makeGradient(4, 3, 3)
	require.Equal(t, 36, img.Len())
	require.Equal(t, 12, img.Pixels())
	require.Equal(t, 1, img.ByteWidth())
	require.Equal(t, img.Pix[(1*4+2)*3+1], img.At(2, 1, 1))
	require.False(t, img.Empty())
	require.True(t, NewImage(0, 5, 1).Empty())
}

func TestCloneIsIndependent(t *testing.T) {
	img := makeGradient(4, 4, 1)
	cp := img.Clone()
	cp.Pix[0] = 99
	require.NotEqual(t, img.Pix[0], cp.Pix[0])
}

func TestReorder(t *testing.T) {
	img := NewImage(1, 1, 3)
	copy(img.Pix, []uint8{10, 20, 30})

	bgr := img.Reorder(BGR)
	require.Equal(t, []uint8{30, 20, 10}, bgr.Pix)
	require.Equal(t, BGR, bgr.Order)
	require.Equal(t, []uint8{10, 20, 30}, img.Pix, "source must not change")
	require.True(t, bgr.Reorder(RGB).Equal(img))
}

func TestColorSpace(t *testing.T) {
	require.Equal(t, "Grayscale", NewImage(1, 1, 1).ColorSpace())
	require.Contains(t, NewImage(1, 1, 3).ColorSpace(), "RGB")
	require.Contains(t, NewImage(1, 1, 3).Reorder(BGR).ColorSpace(), "BGR")
}

func TestToStdRoundTrip(t *testing.T) {
	gray := makeGradient(5, 4, 1)
	require.True(t, FromStd(gray.ToStd(), RGB).Equal(gray))

	rgb := makeGradient(5, 4, 3)
	require.True(t, FromStd(rgb.ToStd(), RGB).Equal(rgb))

	bgr := rgb.Reorder(BGR)
	std := bgr.ToStd().(*image.NRGBA)
	require.Equal(t, rgb.Pix[0], std.Pix[0], "ToStd renders in display order")
	require.True(t, FromStd(std, BGR).Equal(bgr))
}

func TestFromStdGray16KeepsHighByte(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 2, 1))
	src.SetGray16(0, 0, color.Gray16{Y: 0xab12})
	src.SetGray16(1, 0, color.Gray16{Y: 0x00ff})
	img := FromStd(src, RGB)
	require.Equal(t, 1, img.Channels)
	require.Equal(t, []uint8{0xab, 0x00}, img.Pix)
}

func TestToGrayLuma(t *testing.T) {
	img := NewImage(3, 1, 3)
	copy(img.Pix, []uint8{255, 0, 0, 0, 255, 0, 0, 0, 255})
	g := ToGray(img)
	require.Equal(t, []uint8{76, 150, 29}, g.Pix)
	require.Equal(t, g.Pix, ToGray(img.Reorder(BGR)).Pix)
}

// ── Negative ────────────────────────────────────────────────────────────────

func TestNegateScenario(t *testing.T) {
	img := grayFrom(2, 2, 0, 64, 128, 255)
	neg := Negate(img)
	require.Equal(t, []uint8{255, 191, 127, 0}, neg.Pix)
	require.Equal(t, []uint8{0, 64, 128, 255}, img.Pix, "input must not be modified")
}

func TestNegateInvolution(t *testing.T) {
	for _, img := range []Image{
		makeGradient(37, 19, 1),
		makeGradient(64, 48, 3),
		RandomImage(31, 17, 3, 7),
	} {
		require.True(t, Negate(Negate(img)).Equal(img))
	}
}

func TestNegateKeepsOrder(t *testing.T) {
	img := makeGradient(3, 3, 3).Reorder(BGR)
	require.Equal(t, BGR, Negate(img).Order)
}

// ── Histogram ───────────────────────────────────────────────────────────────

func TestHistogramScenario(t *testing.T) {
	h, err := HistogramOf(grayFrom(2, 2, 0, 64, 128, 255), 0)
	require.NoError(t, err)
	for v, c := range h {
		switch v {
		case 0, 64, 128, 255:
			require.Equal(t, 1, c, "bucket %d", v)
		default:
			require.Zero(t, c, "bucket %d", v)
		}
	}
}

func TestHistogramSumsToPixels(t *testing.T) {
	img := makeGradient(50, 30, 3)
	for c := 0; c < 3; c++ {
		h, err := HistogramOf(img, c)
		require.NoError(t, err)
		require.Equal(t, 50*30, h.Sum())
	}
	require.Len(t, Histograms(img), 3)
	all := HistogramAll(img)
	require.Equal(t, img.Len(), all.Sum())
}

func TestHistogramChannelSelection(t *testing.T) {
	img := NewImage(2, 1, 3)
	copy(img.Pix, []uint8{1, 2, 3, 1, 5, 6})
	r, _ := HistogramOf(img, 0)
	g, _ := HistogramOf(img, 1)
	require.Equal(t, 2, r[1])
	require.Equal(t, 1, g[2])
	require.Equal(t, 1, g[5])
}

func TestHistogramRangeError(t *testing.T) {
	img := makeGradient(4, 4, 1)
	for _, c := range []int{-1, 1, 3} {
		_, err := HistogramOf(img, c)
		require.ErrorIs(t, err, ErrRange)
	}
}

func TestCDF(t *testing.T) {
	img := makeGradient(40, 25, 1)
	h, _ := HistogramOf(img, 0)
	cdf := h.CDF()
	require.Equal(t, img.Pixels(), cdf.Total())
	for v := 1; v < Levels; v++ {
		require.GreaterOrEqual(t, cdf[v], cdf[v-1])
	}

	curve := cdf.Scaled(float64(h.Max()))
	require.InDelta(t, float64(h.Max()), curve[MaxSample], 1e-9)

	var empty CDF
	require.Equal(t, make([]float64, Levels), empty.Scaled(10))
}

// ── Equalization ────────────────────────────────────────────────────────────

func TestLookupMonotonic(t *testing.T) {
	for _, img := range []Image{
		makeGradient(64, 64, 1),
		RandomImage(50, 40, 1, 3),
		grayFrom(2, 2, 0, 64, 128, 255),
		makeUniform(8, 8, 100),
	} {
		h, _ := HistogramOf(img, 0)
		require.True(t, NewLookup(h).Monotonic())
	}
}

func TestLookupFormula(t *testing.T) {
	h, _ := HistogramOf(grayFrom(2, 2, 0, 64, 128, 255), 0)
	l := NewLookup(h)
	// cdf = 1 at 0, 2 at 64, 3 at 128, 4 at 255; round(255*cdf/4).
	require.Equal(t, uint8(64), l[0])
	require.Equal(t, uint8(128), l[64])
	require.Equal(t, uint8(191), l[128])
	require.Equal(t, uint8(255), l[255])
	require.Equal(t, uint8(64), l[63], "unoccupied levels inherit the running CDF")
}

func TestLookupEmptyHistogramIsIdentity(t *testing.T) {
	var h Histogram
	l := NewLookup(h)
	for v := range l {
		require.Equal(t, uint8(v), l[v])
	}
}

func TestDisplayCurve(t *testing.T) {
	h, _ := HistogramOf(grayFrom(2, 2, 0, 0, 128, 255), 0)
	// max bucket is 2, total is 4.
	curve := DisplayCurve(h)
	require.Equal(t, 1, curve[0])
	require.Equal(t, 1, curve[127])
	require.Equal(t, 2, curve[255])
}

func TestEqualizeUniformImage(t *testing.T) {
	for _, level := range []uint8{0, 100, 255} {
		out, err := Equalize(makeUniform(4, 4, level))
		require.NoError(t, err)
		for _, v := range out.Pix {
			require.Equal(t, level, v, "a flat image at %d is returned unchanged", level)
		}
	}

	h, _ := HistogramOf(makeUniform(4, 4, 100), 0)
	l := NewLookup(h)
	require.Equal(t, uint8(100), l[100])
	require.True(t, l.Monotonic())
}

func TestEqualizeSpreadsIntensities(t *testing.T) {
	img := NewImage(64, 64, 1)
	for i := range img.Pix {
		img.Pix[i] = uint8(100 + i%20)
	}
	eq, err := EqualizeDetail(img)
	require.NoError(t, err)
	require.Equal(t, img.Pixels(), eq.After.Sum())
	require.Equal(t, img.Pixels(), eq.AfterCDF.Total())
	require.True(t, eq.Lookup.Monotonic())

	inLo, inHi := sampleRange(eq.Before)
	outLo, outHi := sampleRange(eq.After)
	require.Greater(t, int(outHi)-int(outLo), int(inHi)-int(inLo))
	require.Equal(t, uint8(255), outHi)
	require.Equal(t, eq.Before.Max(), eq.BeforeCurve[MaxSample])
}

func TestEqualizeRejectsColor(t *testing.T) {
	_, err := Equalize(makeGradient(4, 4, 3))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEqualizeRejectsEmpty(t *testing.T) {
	_, err := Equalize(NewImage(0, 0, 1))
	require.ErrorIs(t, err, ErrEmptyImage)
}

// ── Loader ──────────────────────────────────────────────────────────────────

func TestLoadMissingFile(t *testing.T) {
	img, err := Load(filepath.Join(t.TempDir(), "nope.jpg"), DefaultOptions())
	require.ErrorIs(t, err, ErrDecode)
	require.True(t, img.Empty())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err := Load(path, DefaultOptions())
	require.ErrorIs(t, err, ErrDecode)
}

func TestLoadGrayPNG(t *testing.T) {
	want := makeGradient(20, 10, 1)
	path := writePNG(t, t.TempDir(), "gray.png", want.ToStd())

	got, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, got.Channels)
	require.True(t, got.Equal(want))
}

func TestLoadColorPNG(t *testing.T) {
	want := makeGradient(20, 10, 3)
	path := writePNG(t, t.TempDir(), "rgb.png", want.ToStd())

	got, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	require.True(t, got.Equal(want))

	opts := DefaultOptions()
	opts.Order = BGR
	bgr, err := Load(path, opts)
	require.NoError(t, err)
	require.True(t, bgr.Equal(want.Reorder(BGR)))

	opts = DefaultOptions()
	opts.Grayscale = true
	gray, err := Load(path, opts)
	require.NoError(t, err)
	require.True(t, gray.Equal(ToGray(want)))
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	img := makeGradient(16, 16, 3)
	store := NewFileStore(DefaultOptions())

	path := filepath.Join(dir, "out.png")
	require.NoError(t, store.Save(img, path))
	back, err := store.Load(path)
	require.NoError(t, err)
	require.True(t, back.Equal(img))

	require.NoError(t, store.Save(img, filepath.Join(dir, "out.jpg")))
	require.NoError(t, store.Save(img, filepath.Join(dir, "out.bmp")))
	_, err = store.Load(filepath.Join(dir, "out.bmp"))
	require.NoError(t, err)
}

func TestSaveUnsupportedExtension(t *testing.T) {
	err := Save(makeGradient(2, 2, 1), filepath.Join(t.TempDir(), "out.xyz"), DefaultOptions())
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOutputPaths(t *testing.T) {
	require.Equal(t, "negative_photo.jpg", NegativePath("/tmp/in/photo.jpg"))
	require.Equal(t, "equalized_output.png", EqualizedPath("input.PNG"))
	require.Equal(t, "equalized_output.jpg", EqualizedPath("input"))

	// webp decodes but cannot be written back.
	require.Equal(t, "negative_photo.jpg", NegativePath("shots/photo.webp"))
	require.Equal(t, "equalized_output.jpg", EqualizedPath("input.webp"))
	require.Equal(t, "equalized_output.tif", EqualizedPath("scan.TIF"))
}

func TestEncodeDecodeStream(t *testing.T) {
	img := makeGradient(12, 9, 3)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, ".png", DefaultOptions()))

	back, err := Decode(&buf, DefaultOptions())
	require.NoError(t, err)
	require.True(t, back.Equal(img))

	err = Encode(&buf, img, ".webp", DefaultOptions())
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Decode(bytes.NewReader([]byte("not an image")), DefaultOptions())
	require.ErrorIs(t, err, ErrDecode)
}

// ── Metadata and compression ────────────────────────────────────────────────

func TestDescribe(t *testing.T) {
	img := grayFrom(2, 2, 0, 64, 128, 255)
	path := writePNG(t, t.TempDir(), "tiny.png", img.ToStd())
	info, err := os.Stat(path)
	require.NoError(t, err)

	r, err := Describe(img, path)
	require.NoError(t, err)
	require.Equal(t, 2, r.Width)
	require.Equal(t, 2, r.Height)
	require.Equal(t, 1, r.Channels)
	require.Equal(t, "uint8", r.DataType)
	require.Equal(t, 4, r.Elements)
	require.Equal(t, info.Size(), r.FileSize)
	require.Equal(t, uint8(0), r.Min)
	require.Equal(t, uint8(255), r.Max)
	require.InDelta(t, 111.75, r.Mean, 1e-9)
	// population std of {0, 64, 128, 255}
	require.InDelta(t, 94.2772, r.StdDev, 1e-3)
	require.InDelta(t, 2.0, r.Entropy, 1e-9)
	require.Contains(t, r.String(), "Image Dimensions: 2 x 2 pixels")
}

func TestDescribeStatsAcrossChannels(t *testing.T) {
	img := NewImage(1, 1, 3)
	copy(img.Pix, []uint8{10, 20, 30})
	path := writePNG(t, t.TempDir(), "px.png", img.ToStd())

	r, err := Describe(img, path)
	require.NoError(t, err)
	require.Equal(t, uint8(10), r.Min)
	require.Equal(t, uint8(30), r.Max)
	require.InDelta(t, 20.0, r.Mean, 1e-9)
}

func TestDescribeMissingFile(t *testing.T) {
	_, err := Describe(makeGradient(2, 2, 1), filepath.Join(t.TempDir(), "moved.png"))
	require.ErrorIs(t, err, ErrIO)
}

func TestEstimate(t *testing.T) {
	img := makeGradient(40, 30, 3)
	path := writePNG(t, t.TempDir(), "img.png", img.ToStd())
	info, err := os.Stat(path)
	require.NoError(t, err)

	r, err := Estimate(img, path)
	require.NoError(t, err)
	require.Equal(t, int64(40*30*3*1), r.UncompressedBytes)
	require.Equal(t, info.Size(), r.CompressedBytes)
	require.Equal(t, float64(r.UncompressedBytes)/float64(r.CompressedBytes), r.Ratio)
	require.InDelta(t, (1-float64(r.CompressedBytes)/float64(r.UncompressedBytes))*100, r.PercentSaved, 1e-9)
	require.Equal(t, r.UncompressedBytes-r.CompressedBytes, r.SpaceSaved)
	require.Contains(t, r.String(), "Compression Ratio:")
}

func TestEstimateZeroByteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jpg")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err := Estimate(makeGradient(4, 4, 1), path)
	require.ErrorIs(t, err, ErrDivision)
}

func TestEstimateMissingFile(t *testing.T) {
	_, err := Estimate(makeGradient(4, 4, 1), filepath.Join(t.TempDir(), "gone.jpg"))
	require.ErrorIs(t, err, ErrIO)
}

func TestReferenceSize(t *testing.T) {
	img := makeUniform(64, 64, 42)
	for _, codec := range []Codec{Zstd, Zlib} {
		ref, err := ReferenceSizeOf(img, codec)
		require.NoError(t, err)
		require.Equal(t, codec, ref.Codec)
		require.Greater(t, ref.Bytes, int64(0))
		require.Greater(t, ref.Ratio, 10.0, "a flat image codes tightly with %s", codec)
	}

	_, err := ReferenceSizeOf(NewImage(0, 0, 1), Zstd)
	require.ErrorIs(t, err, ErrEmptyImage)
}

func TestEstimateWithReference(t *testing.T) {
	img := makeGradient(32, 32, 1)
	path := writePNG(t, t.TempDir(), "g.png", img.ToStd())
	r, err := EstimateWithReference(img, path, Zlib)
	require.NoError(t, err)
	require.NotNil(t, r.Reference)
	require.Contains(t, r.String(), "Lossless zlib Size")
}

func TestParseCodec(t *testing.T) {
	c, err := ParseCodec("ZSTD")
	require.NoError(t, err)
	require.Equal(t, Zstd, c)
	c, err = ParseCodec("deflate")
	require.NoError(t, err)
	require.Equal(t, Zlib, c)
	_, err = ParseCodec("lzma")
	require.Error(t, err)
}

// ── Misc ────────────────────────────────────────────────────────────────────

func TestRandomImageDeterministic(t *testing.T) {
	a := RandomImage(30, 20, 3, 11)
	b := RandomImage(30, 20, 3, 11)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(RandomImage(30, 20, 3, 12)))
	for _, v := range a.Pix {
		require.Less(t, v, uint8(MaxSample))
	}
}

func TestHumanBytes(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.0 KB"},
		{1048576, "1.0 MB"},
		{1536000, "1.5 MB"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, humanBytes(tc.bytes), "humanBytes(%d)", tc.bytes)
	}
}

func BenchmarkEqualize(b *testing.B) {
	img := RandomImage(1024, 768, 1, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Equalize(img)
	}
}

func BenchmarkNegate(b *testing.B) {
	img := RandomImage(1024, 768, 3, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Negate(img)
	}
}
