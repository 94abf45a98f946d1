package export

import "fmt"

// Format identifies a rendered artifact type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat validates a client supplied format, defaulting to xlsx.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "":
		return FormatXLSX, nil
	case FormatCSV, FormatPDF, FormatXLSX:
		return Format(raw), nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Dataset defines tabular export content. Title names the sheet or document heading.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

func (d Dataset) record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}

// Renderer turns a dataset into a downloadable artifact.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	Format() Format
}

// RendererFor returns the tabular renderer for a format.
func RendererFor(format Format) (Renderer, error) {
	switch format {
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	case FormatXLSX:
		return NewXLSXExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
