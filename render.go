package imlab

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	vgdraw "gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Renderer turns a Figure into an output artifact.
type Renderer interface {
	Render(fig *Figure, path string) error
}

// Figure is a grid of panels laid out row by row.
type Figure struct {
	Rows, Cols int

	// CellWidth and CellHeight are the pixel size of one panel.
	CellWidth, CellHeight int

	Panels []Panel
}

// Panel is one cell of a Figure.
type Panel interface {
	drawInto(dst *image.NRGBA, cell image.Rectangle) error
}

// ImagePanel shows an image scaled to fit its cell.
type ImagePanel struct {
	Title string
	Image Image
}

// Series is one line of a plot.
type Series struct {
	Label  string
	Values []float64
	Color  color.Color
}

// PlotPanel draws one or more series against their index with gonum/plot.
type PlotPanel struct {
	Title, XLabel, YLabel string
	Series                []Series
	Grid                  bool
}

var (
	colorInk   = color.NRGBA{0x20, 0x20, 0x20, 0xff}
	colorRed   = color.NRGBA{0xd6, 0x27, 0x28, 0xff}
	colorGreen = color.NRGBA{0x2c, 0xa0, 0x2c, 0xff}
	colorBlue  = color.NRGBA{0x1f, 0x77, 0xb4, 0xff}
	colorGray  = color.NRGBA{0x55, 0x55, 0x55, 0xff}

	face       = basicfont.Face7x13
	lineHeight = 13
)

const (
	defaultCellWidth  = 480
	defaultCellHeight = 360
	titleBand         = 22
	plotDPI           = 96
)

// NewFigure returns an empty rows × cols figure with default cell size.
func NewFigure(rows, cols int) *Figure {
	return &Figure{Rows: rows, Cols: cols, CellWidth: defaultCellWidth, CellHeight: defaultCellHeight}
}

// Add appends panels in row-major order.
func (f *Figure) Add(panels ...Panel) *Figure {
	f.Panels = append(f.Panels, panels...)
	return f
}

// Draw rasterises the figure on a white canvas.
func (f *Figure) Draw() (*image.NRGBA, error) {
	if f.Rows <= 0 || f.Cols <= 0 {
		return nil, fmt.Errorf("imlab: figure grid %dx%d is empty", f.Rows, f.Cols)
	}
	if len(f.Panels) > f.Rows*f.Cols {
		return nil, fmt.Errorf("imlab: %d panels do not fit a %dx%d figure", len(f.Panels), f.Rows, f.Cols)
	}
	cw, ch := f.CellWidth, f.CellHeight
	if cw <= 0 {
		cw = defaultCellWidth
	}
	if ch <= 0 {
		ch = defaultCellHeight
	}

	canvas := imaging.New(cw*f.Cols, ch*f.Rows, color.White)
	for i, p := range f.Panels {
		if p == nil {
			continue
		}
		row, col := i/f.Cols, i%f.Cols
		cell := image.Rect(col*cw, row*ch, (col+1)*cw, (row+1)*ch)
		if err := p.drawInto(canvas, cell); err != nil {
			return nil, err
		}
	}
	return canvas, nil
}

// PNGRenderer writes figures as image files; the format follows the path
// extension, so ".png" is the usual choice.
type PNGRenderer struct{}

// Render implements Renderer.
func (PNGRenderer) Render(fig *Figure, path string) error {
	canvas, err := fig.Draw()
	if err != nil {
		return err
	}
	if !writable(path) {
		return fmt.Errorf("%w: render %q", ErrUnsupportedFormat, path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: render %q: %w", ErrIO, path, err)
	}
	err = Encode(f, FromStd(canvas, RGB), filepath.Ext(path), DefaultOptions())
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: render %q: %w", ErrIO, path, cerr)
	}
	return err
}

func (p ImagePanel) drawInto(dst *image.NRGBA, cell image.Rectangle) error {
	drawTitle(dst, cell, p.Title)
	if p.Image.Empty() {
		return nil
	}
	area := image.Rect(cell.Min.X+8, cell.Min.Y+titleBand, cell.Max.X-8, cell.Max.Y-8)
	scale := math.Min(
		float64(area.Dx())/float64(p.Image.Width),
		float64(area.Dy())/float64(p.Image.Height),
	)
	w := max(1, int(float64(p.Image.Width)*scale))
	h := max(1, int(float64(p.Image.Height)*scale))

	// Upscaled tiny images keep hard pixel edges.
	filter := imaging.Lanczos
	if scale > 1 {
		filter = imaging.NearestNeighbor
	}
	scaled := imaging.Resize(p.Image.ToStd(), w, h, filter)

	origin := image.Pt(area.Min.X+(area.Dx()-w)/2, area.Min.Y+(area.Dy()-h)/2)
	draw.Draw(dst, image.Rectangle{Min: origin, Max: origin.Add(scaled.Bounds().Size())}, scaled, image.Point{}, draw.Src)
	return nil
}

func (p PlotPanel) drawInto(dst *image.NRGBA, cell image.Rectangle) error {
	pl, err := p.build()
	if err != nil {
		return err
	}
	c := vgimg.NewWith(
		vgimg.UseImage(image.NewRGBA(image.Rect(0, 0, cell.Dx(), cell.Dy()))),
		vgimg.UseDPI(plotDPI),
	)
	pl.Draw(vgdraw.New(c))
	draw.Draw(dst, cell, c.Image(), image.Point{}, draw.Src)
	return nil
}

// build lays the panel out as a gonum plot. Both axes start at zero since
// every series is indexed by intensity and holds counts.
func (p PlotPanel) build() (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = p.Title
	pl.X.Label.Text = p.XLabel
	pl.Y.Label.Text = p.YLabel
	pl.X.Min, pl.Y.Min = 0, 0
	pl.Legend.Top = true

	if p.Grid {
		pl.Add(plotter.NewGrid())
	}
	for _, s := range p.Series {
		if len(s.Values) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.Values))
		for i, v := range s.Values {
			xys[i].X, xys[i].Y = float64(i), v
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("imlab: plot %q: %w", p.Title, err)
		}
		line.Color = s.Color
		if line.Color == nil {
			line.Color = colorBlue
		}
		line.Width = vg.Points(1.5)
		pl.Add(line)
		if s.Label != "" {
			pl.Legend.Add(s.Label, line)
		}
	}
	return pl, nil
}

func drawTitle(dst *image.NRGBA, cell image.Rectangle, title string) {
	if title == "" {
		return
	}
	x := cell.Min.X + (cell.Dx()-textWidth(title))/2
	drawText(dst, x, cell.Min.Y+lineHeight+4, title, colorInk)
}

// drawText draws s with its baseline at y.
func drawText(dst *image.NRGBA, x, y int, s string, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func textWidth(s string) int {
	return font.MeasureString(face, s).Ceil()
}

// ChannelNames labels the channels of img in storage order.
func ChannelNames(img Image) []string {
	switch {
	case img.Channels == 1:
		return []string{"gray"}
	case img.Channels == 3 && img.Order == BGR:
		return []string{"blue", "green", "red"}
	case img.Channels == 3:
		return []string{"red", "green", "blue"}
	}
	names := make([]string, img.Channels)
	for i := range names {
		names[i] = fmt.Sprintf("channel %d", i)
	}
	return names
}

func channelColor(name string) color.Color {
	switch name {
	case "red":
		return colorRed
	case "green":
		return colorGreen
	case "blue":
		return colorBlue
	default:
		return colorGray
	}
}

// NegativeFigure shows an image beside its negative.
func NegativeFigure(original, negative Image) *Figure {
	return NewFigure(1, 2).Add(
		ImagePanel{Title: "Original Image", Image: original},
		ImagePanel{Title: "Negative Image", Image: negative},
	)
}

// ColorHistogramFigure shows an image beside the histograms of its channels.
func ColorHistogramFigure(img Image) *Figure {
	names := ChannelNames(img)
	panel := PlotPanel{
		Title:  "RGB Histogram",
		XLabel: "Pixel Intensity",
		YLabel: "Frequency",
	}
	if img.Channels == 1 {
		panel.Title = "Histogram"
	}
	for c, h := range Histograms(img) {
		panel.Series = append(panel.Series, Series{
			Label:  capitalize(names[c]),
			Values: h.Floats(),
			Color:  channelColor(names[c]),
		})
	}
	return NewFigure(1, 2).Add(ImagePanel{Title: "Original Image", Image: img}, panel)
}

// EqualizationFigure lays out an equalization run in two rows: image,
// histogram and CDF curve before, then the same after.
func EqualizationFigure(eq *Equalization) *Figure {
	hist := func(title string, h Histogram) PlotPanel {
		return PlotPanel{
			Title: title, XLabel: "Pixel Intensity", YLabel: "Frequency", Grid: true,
			Series: []Series{{Values: h.Floats(), Color: colorGray}},
		}
	}
	cdf := func(title string, h Histogram, c color.Color) PlotPanel {
		dist := h.CDF()
		return PlotPanel{
			Title: title, XLabel: "Pixel Intensity", YLabel: "Cumulative Frequency", Grid: true,
			Series: []Series{{Values: dist.Scaled(float64(h.Max())), Color: c}},
		}
	}
	return NewFigure(2, 3).Add(
		ImagePanel{Title: "Original Image", Image: eq.Input},
		hist("Original Histogram", eq.Before),
		cdf("Cumulative Distribution Function", eq.Before, colorBlue),
		ImagePanel{Title: "Histogram Equalized Image", Image: eq.Output},
		hist("Equalized Histogram", eq.After),
		cdf("Equalized CDF", eq.After, colorRed),
	)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
