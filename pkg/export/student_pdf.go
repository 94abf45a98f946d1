package export

import "fmt"

// Field is a labelled value printed on a single-record document.
type Field struct {
	Label string
	Value string
}

// StudentPerformancePDF renders a single student/course pairing as a label/value sheet.
type StudentPerformancePDF struct{}

// NewStudentPerformancePDF constructs the single-record renderer.
func NewStudentPerformancePDF() *StudentPerformancePDF {
	return &StudentPerformancePDF{}
}

// Render prints each field on its own line beneath the title.
func (r *StudentPerformancePDF) Render(title string, fields []Field) ([]byte, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("student report requires at least one field")
	}
	pdf := newDocument(title)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, field := range fields {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(50, 8, tr(field.Label), "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, tr(field.Value), "", 1, "", false, 0, "")
	}
	return output(pdf)
}
