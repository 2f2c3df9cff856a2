package services

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

var (
	//go:embed templates/letter.html
	letterTemplates embed.FS

	letterTemplate = template.Must(template.New("letter.html").ParseFS(letterTemplates, "templates/letter.html"))
)

// RenderHTML renders doc as the letter fragment consumed by the print and
// export sinks.
func RenderHTML(doc Document) (string, error) {
	data := struct {
		Doc Document
		QR  template.URL
	}{Doc: doc}

	// Only data URIs produced by the QR encoder are trusted as image sources.
	if strings.HasPrefix(doc.QRImage, "data:image/png;base64,") {
		data.QR = template.URL(doc.QRImage)
	}

	var body bytes.Buffer
	if err := letterTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render letter template: %w", err)
	}
	return body.String(), nil
}
