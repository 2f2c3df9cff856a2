package sink

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

const (
	FormatPDF  = "pdf"
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// A4 portrait in inches, the unit of the DevTools print API.
const (
	a4WidthInch  = 8.27
	a4HeightInch = 11.69
	mmPerInch    = 25.4
)

// ExportOptions control one export. MarginsMM is top, right, bottom, left.
type ExportOptions struct {
	Title     string
	Filename  string
	Format    string
	MarginsMM [4]float64
	Quality   float64
}

// ContentType returns the MIME type of the artifact format.
func (o ExportOptions) ContentType() string {
	switch o.Format {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	default:
		return "application/pdf"
	}
}

// ParseFormat normalises a requested export format.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatJPEG, "jpg":
		return FormatJPEG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Exporter produces a binary artifact from a letter fragment.
type Exporter interface {
	Export(ctx context.Context, fragment string, opts ExportOptions) ([]byte, error)
}

// RodExporter renders letters in headless Chrome. The browser is started on
// first use and reused afterwards.
type RodExporter struct {
	controlURL string
	logger     *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

// NewRodExporter connects to the DevTools endpoint at controlURL, or launches
// a local headless Chrome when controlURL is empty.
func NewRodExporter(controlURL string, logger *zap.Logger) *RodExporter {
	return &RodExporter{controlURL: controlURL, logger: logger}
}

func (e *RodExporter) connect() (*rod.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser != nil {
		return e.browser, nil
	}

	u := e.controlURL
	if u == "" {
		launched, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		u = launched
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect chrome: %w", err)
	}

	e.logger.Info("export browser connected", zap.String("control_url", u))
	e.browser = browser
	return browser, nil
}

func (e *RodExporter) Export(ctx context.Context, fragment string, opts ExportOptions) ([]byte, error) {
	browser, err := e.connect()
	if err != nil {
		return nil, err
	}

	html, err := Page(opts.Title, fragment, false)
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("load letter: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait letter load: %w", err)
	}

	switch opts.Format {
	case FormatJPEG, FormatPNG:
		return e.screenshot(page, opts)
	default:
		return e.pdf(page, opts)
	}
}

func (e *RodExporter) pdf(page *rod.Page, opts ExportOptions) ([]byte, error) {
	inch := func(mm float64) *float64 {
		v := mm / mmPerInch
		return &v
	}
	width, height := a4WidthInch, a4HeightInch

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      &width,
		PaperHeight:     &height,
		MarginTop:       inch(opts.MarginsMM[0]),
		MarginRight:     inch(opts.MarginsMM[1]),
		MarginBottom:    inch(opts.MarginsMM[2]),
		MarginLeft:      inch(opts.MarginsMM[3]),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return data, nil
}

func (e *RodExporter) screenshot(page *rod.Page, opts ExportOptions) ([]byte, error) {
	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	if opts.Format == FormatJPEG {
		quality := int(opts.Quality * 100)
		req = &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatJpeg, Quality: &quality}
	}

	data, err := page.Screenshot(true, req)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", opts.Format, err)
	}
	return data, nil
}

// Close shuts the browser down if one was started.
func (e *RodExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser == nil {
		return nil
	}
	err := e.browser.Close()
	e.browser = nil
	return err
}
