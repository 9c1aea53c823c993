package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcceptFile(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		contentType string
		wantErr     error
	}{
		{"xlsx", "orcamento.xlsx", "", nil},
		{"xls", "orcamento.XLS", "application/octet-stream", nil},
		{"declared xlsx type", "export", MIMETypeXLSX, nil},
		{"declared xls type with params", "export", "application/vnd.ms-excel; charset=binary", nil},
		{"csv", "dados.csv", "text/csv", ErrFileType},
		{"pdf", "relatorio.pdf", "application/pdf", ErrFileType},
		{"no name", "", MIMETypeXLSX, ErrNoFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AcceptFile(tt.file, tt.contentType)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAcceptAttr(t *testing.T) {
	assert.Contains(t, AcceptAttr, ".xlsx")
	assert.Contains(t, AcceptAttr, ".xls")
	assert.Contains(t, AcceptAttr, MIMETypeXLS)
}
