// Package sink holds the consumers of a finished letter: the print page and
// the file exporter.
package sink

import (
	"bytes"
	"fmt"
	"html/template"
)

// pageTemplate wraps a letter fragment in an A4 page. With AutoPrint the
// page opens the print dialog once loaded and closes itself afterwards.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  @page { size: A4; margin: 2cm; }
  * { -webkit-print-color-adjust: exact !important; color-adjust: exact !important; }
  body { font-family: 'Times New Roman', Times, serif; font-size: 12pt; line-height: 1.3; margin: 0; padding: 0; color: black; background: white; }
  .surat { width: 100%; }
  table.atribut { border-collapse: collapse; }
  table.atribut td { padding: 0; }
</style>
</head>
<body>
{{.Body}}
{{- if .AutoPrint}}
<script>
  window.addEventListener("load", function () {
    setTimeout(function () {
      window.print();
      window.close();
    }, 250);
  });
</script>
{{- end}}
</body>
</html>
`))

// Page renders fragment as a standalone A4 HTML document.
func Page(title, fragment string, autoPrint bool) (string, error) {
	data := struct {
		Title     string
		Body      template.HTML
		AutoPrint bool
	}{
		Title:     title,
		Body:      template.HTML(fragment),
		AutoPrint: autoPrint,
	}

	var out bytes.Buffer
	if err := pageTemplate.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return out.String(), nil
}

// PrintPage is the page served to the print window.
func PrintPage(title, fragment string) (string, error) {
	return Page(title, fragment, true)
}
