// Package render turns finished chart configurations into deliverable
// payloads: images via an external highcharts export server, CSV and HTML
// via local string formatting.
package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/newsroom-cloud/analytics/internal/domain"
)

// Supported output mime types.
const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeGIF  = "image/gif"
	MimePDF  = "application/pdf"
	MimeSVG  = "image/svg+xml"
	MimeCSV  = "text/csv"
	MimeHTML = "text/html"
)

// imageFormats maps image mime types to the export server's format names.
var imageFormats = map[string]string{
	MimePNG:  "png",
	MimeJPEG: "jpeg",
	MimeGIF:  "gif",
	MimePDF:  "pdf",
	MimeSVG:  "svg",
}

// Extension returns the file extension for a supported mime type.
func Extension(mimetype string) (string, error) {
	switch mimetype {
	case MimePNG:
		return "png", nil
	case MimeJPEG:
		return "jpeg", nil
	case MimeGIF:
		return "gif", nil
	case MimePDF:
		return "pdf", nil
	case MimeSVG:
		return "svg", nil
	case MimeCSV:
		return "csv", nil
	case MimeHTML:
		return "html", nil
	}
	return "", domain.BadRequest("unsupported mimetype %q", mimetype)
}

// CSV renders the headers and rows of a table config as \r\n-terminated
// CSV records.
func CSV(config map[string]any) []byte {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true

	if headers, ok := config["headers"].([]string); ok {
		_ = writer.Write(headers)
	}
	if rows, ok := config["rows"].([][]any); ok {
		record := []string{}
		for _, row := range rows {
			record = record[:0]
			for _, cell := range row {
				record = append(record, fmt.Sprintf("%v", cell))
			}
			_ = writer.Write(record)
		}
	}

	writer.Flush()
	return buf.Bytes()
}

// HTML renders the headers and rows of a table config as a bordered HTML
// table with the chart title as heading.
func HTML(config map[string]any) []byte {
	title, _ := config["title"].(string)
	rows, _ := config["rows"].([][]any)

	if len(rows) < 1 {
		return []byte(fmt.Sprintf("<div><h3>%s</h3></div>", title))
	}

	var thead strings.Builder
	if headers, ok := config["headers"].([]string); ok {
		thead.WriteString("<tr><th>")
		thead.WriteString(strings.Join(headers, "</th><th>"))
		thead.WriteString("</th></tr>")
	}

	var tbody strings.Builder
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprintf("%v", cell)
		}
		tbody.WriteString("<tr><td>")
		tbody.WriteString(strings.Join(cells, "</td><td>"))
		tbody.WriteString("</td></tr>")
	}

	return []byte(fmt.Sprintf(`
<div>
    <h3>%s</h3>
    <table border=1 style="width: 100%%;">
        <thead>
            %s
        </thead>
        <tbody>
            %s
        </tbody>
    </table>
</div>`, title, thead.String(), tbody.String()))
}
