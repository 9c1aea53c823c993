package core

// PreviewRows is the number of data rows shown under the header.
const PreviewRows = 5

// Preview is the first rows of a grid prepared for display.
type Preview struct {
	FileName  string
	Headers   Row
	Rows      []Row
	Detected  int // data rows in the sheet
	Remaining int // data rows not shown
}

// BuildPreview returns the header plus up to PreviewRows data rows.
// A nil or empty grid has no preview.
func BuildPreview(g Grid, fileName string) *Preview {
	if len(g) == 0 {
		return nil
	}

	end := min(len(g), PreviewRows+1)

	return &Preview{
		FileName:  fileName,
		Headers:   g[0],
		Rows:      g[1:end],
		Detected:  g.ItemCount(),
		Remaining: max(0, len(g)-(PreviewRows+1)),
	}
}

// Columns returns the widest row width among the header and shown rows.
// Rendering uses it to size the table; rows are not padded.
func (p *Preview) Columns() int {
	n := len(p.Headers)
	for _, r := range p.Rows {
		n = max(n, len(r))
	}
	return n
}
