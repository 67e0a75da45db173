package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/femtoscopy/internal/femto/hist"
	"github.com/banshee-data/femtoscopy/internal/fsutil"
)

var errNoPoints = errors.New("curve has no points")

// Curve is one correlation function ready for drawing.
type Curve struct {
	Label  string
	Kind   hist.Kind
	Points []hist.Point
}

// Curves collects the correlation functions of kind k for every filled bin
// of acc, in acc.Bins order. Bins without a defined ratio are left out.
func Curves[BK comparable](acc *hist.Accumulator[BK], k hist.Kind) []Curve {
	var out []Curve
	for _, key := range acc.Bins() {
		pts := acc.Correlation(key, k)
		if len(pts) == 0 {
			continue
		}
		out = append(out, Curve{Label: fmt.Sprint(key), Kind: k, Points: pts})
	}
	return out
}

// errPoints adapts a point slice to the plotter XYer and YErrorer interfaces.
type errPoints []hist.Point

func (p errPoints) Len() int                        { return len(p) }
func (p errPoints) XY(i int) (float64, float64)     { return p[i].X, p[i].Y }
func (p errPoints) YError(i int) (float64, float64) { return p[i].Err, p[i].Err }

// FileName turns a curve label into a safe PNG file name.
func FileName(c Curve) string {
	r := strings.NewReplacer("/", "_", " ", "_", ":", "_")
	return fmt.Sprintf("cf_%s_%s.png", c.Kind, r.Replace(c.Label))
}

// WritePNG draws c with error bars and saves it to path on fsys.
func WritePNG(fsys fsutil.FileSystem, path string, c Curve) error {
	if len(c.Points) == 0 {
		return fmt.Errorf("%s: %w", c.Label, errNoPoints)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("C(%s) %s", c.Kind, c.Label)
	p.X.Label.Text = c.Kind.String() + " (MeV/c)"
	p.Y.Label.Text = "C"

	pts := errPoints(c.Points)
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to create line: %w", err)
	}
	line.Width = vg.Points(1)
	bars, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return fmt.Errorf("failed to create error bars: %w", err)
	}
	p.Add(line, bars, plotter.NewGrid())

	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// WritePNGs saves every curve into dir and returns how many files were
// written.
func WritePNGs(fsys fsutil.FileSystem, dir string, curves []Curve) (int, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create plot directory: %w", err)
	}
	n := 0
	for _, c := range curves {
		if err := WritePNG(fsys, filepath.Join(dir, FileName(c)), c); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// WriteHTML renders one line chart per curve on a single page.
func WriteHTML(w io.Writer, title string, curves []Curve) error {
	page := components.NewPage()
	page.PageTitle = title

	for _, c := range curves {
		xs := make([]string, len(c.Points))
		ys := make([]opts.LineData, len(c.Points))
		for i, pt := range c.Points {
			xs[i] = strconv.FormatFloat(pt.X, 'f', 1, 64)
			ys[i] = opts.LineData{Value: pt.Y}
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
			charts.WithTitleOpts(opts.Title{Title: c.Label, Subtitle: fmt.Sprintf("C(%s), %d points", c.Kind, len(c.Points))}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: c.Kind.String(), NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Name: "C"}),
		)
		line.SetXAxis(xs).AddSeries(c.Kind.String(), ys)
		page.AddCharts(line)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}
