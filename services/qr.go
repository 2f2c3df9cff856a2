package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/nawawimhz/surat-generator/config"
	"github.com/nawawimhz/surat-generator/models"
)

// QREncoder turns payload text into an image reference. Implementations may
// block; callers run them off the edit path.
type QREncoder interface {
	Encode(ctx context.Context, text string) (string, error)
}

// BuildPayload returns the verification text of rec: the letter title
// followed by "Key: value" lines. It is plain text so the encoded image is
// stable for identical inputs.
func (r *Renderer) BuildPayload(rec models.Record) (string, error) {
	tpl, err := r.Template(rec.Type)
	if err != nil {
		return "", err
	}

	v := r.view(rec)
	var b strings.Builder
	b.WriteString(v.spec.Title)
	for _, line := range tpl.QRLines(v) {
		b.WriteString("\n")
		b.WriteString(line.Label)
		b.WriteString(": ")
		b.WriteString(line.Value)
	}
	return b.String(), nil
}

// GoQREncoder encodes payloads as PNG data URIs. Margin is the quiet zone in
// modules around the symbol.
type GoQREncoder struct {
	Width      int
	Margin     int
	Foreground color.Color
	Background color.Color
}

func NewGoQREncoder(cfg config.QRConfig) (*GoQREncoder, error) {
	fg, err := parseHexColor(cfg.Dark)
	if err != nil {
		return nil, fmt.Errorf("qr dark color: %w", err)
	}
	bg, err := parseHexColor(cfg.Light)
	if err != nil {
		return nil, fmt.Errorf("qr light color: %w", err)
	}

	return &GoQREncoder{
		Width:      cfg.Width,
		Margin:     cfg.Margin,
		Foreground: fg,
		Background: bg,
	}, nil
}

func (e *GoQREncoder) Encode(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	q.DisableBorder = true

	var buf bytes.Buffer
	if err := png.Encode(&buf, e.raster(q.Bitmap())); err != nil {
		return "", fmt.Errorf("render qr png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// raster draws the modules inside a quiet zone of e.Margin modules, scaled
// to the largest whole module size that fits Width pixels and centred.
func (e *GoQREncoder) raster(bits [][]bool) *image.Paletted {
	modules := len(bits) + 2*e.Margin
	size := e.Width
	if size < modules {
		size = modules
	}
	scale := size / modules
	offset := (size-modules*scale)/2 + e.Margin*scale

	img := image.NewPaletted(image.Rect(0, 0, size, size), color.Palette{e.Background, e.Foreground})
	for y, row := range bits {
		for x, dark := range row {
			if !dark {
				continue
			}
			x0, y0 := offset+x*scale, offset+y*scale
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetColorIndex(x0+dx, y0+dy, 1)
				}
			}
		}
	}
	return img
}

func parseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
