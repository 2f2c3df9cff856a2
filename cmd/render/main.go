// Command render produces a letter file from a JSON form without the HTTP
// server. The input uses the same keys as PATCH /api/letters/:type.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nawawimhz/surat-generator/config"
	"github.com/nawawimhz/surat-generator/dto/letters"
	"github.com/nawawimhz/surat-generator/models"
	"github.com/nawawimhz/surat-generator/services"
	"github.com/nawawimhz/surat-generator/utils/logger"
	"github.com/nawawimhz/surat-generator/utils/sink"
)

type renderOptions struct {
	letterType string
	input      string
	format     string
	output     string
	configPath string
	chromeURL  string
	timeout    time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a village letter to HTML, PDF or an image",
		Example: `  render --type domisili --input ujang.json --format pdf
  render --type kematian --input form.json --format html --output surat.html`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.letterType, "type", "t", "", "letter type: domisili, spkck or kematian")
	f.StringVarP(&opts.input, "input", "i", "", "JSON file with the form fields")
	f.StringVarP(&opts.format, "format", "f", "html", "output format: html, pdf, jpeg or png")
	f.StringVarP(&opts.output, "output", "o", "", "output file (defaults to the letter file name)")
	f.StringVar(&opts.configPath, "config", os.Getenv("LETTER_CONFIG_PATH"), "letter config YAML (embedded default when empty)")
	f.StringVar(&opts.chromeURL, "chrome", os.Getenv("EXPORT_CHROME_URL"), "DevTools URL of a running Chrome")
	f.DurationVar(&opts.timeout, "timeout", time.Minute, "export timeout")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func run(ctx context.Context, opts renderOptions) error {
	zlog, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		return err
	}
	defer zlog.Sync()

	t, err := models.ParseLetterType(opts.letterType)
	if err != nil {
		return err
	}
	cfg, err := config.LoadLetterConfig(opts.configPath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var req letters.UpdateLetterRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	if errs := req.Validate(t, cfg.Options); len(errs) > 0 {
		for field, msg := range errs {
			zlog.Error("invalid field", zap.String("field", field), zap.String("reason", msg))
		}
		return fmt.Errorf("input has %d invalid fields", len(errs))
	}
	cmds, err := req.ToCommands(cfg.Timezone.Location())
	if err != nil {
		return err
	}

	encoder, err := services.NewGoQREncoder(cfg.QR)
	if err != nil {
		return err
	}
	exporter := sink.NewRodExporter(opts.chromeURL, zlog)
	defer exporter.Close()

	pipeline := &services.Pipeline{
		Renderer:   services.NewRenderer(cfg),
		Encoder:    encoder,
		Exporter:   exporter,
		Logger:     zlog,
		QROrdering: config.QROrderingRequest,
	}
	session, err := pipeline.NewSession("cli", t)
	if err != nil {
		return err
	}
	if _, err := session.Apply(cmds...); err != nil {
		return err
	}
	session.WaitQR()

	doc, err := session.Preview()
	if err != nil {
		return err
	}

	var data []byte
	filename := pipeline.Renderer.Filename(session.Record(), "html")
	if strings.EqualFold(opts.format, "html") {
		fragment, err := services.RenderHTML(doc)
		if err != nil {
			return err
		}
		page, err := sink.Page(cfg.Letter(t).Title, fragment, false)
		if err != nil {
			return err
		}
		data = []byte(page)
	} else {
		ctx, cancel := context.WithTimeout(ctx, opts.timeout)
		defer cancel()
		art, err := session.Export(ctx, opts.format)
		if err != nil {
			return err
		}
		data, filename = art.Data, art.Filename
	}

	out := opts.output
	if out == "" {
		out = filepath.Clean(filename)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	zlog.Info("letter rendered", zap.String("file", out), zap.Int("bytes", len(data)))
	return nil
}
