package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"unsupported format", fmt.Errorf("%w: text/plain", ErrUnsupportedFormat), "FILE002"},
		{"invalid workbook", fmt.Errorf("%w: zip: not a valid zip file", ErrInvalidWorkbook), "FILE003"},
		{"no file", ErrNoFile, "FILE004"},
		{"too many files", ErrTooManyFiles, "FILE005"},
		{"file type", fmt.Errorf("%w: notes.txt", ErrFileType), "FILE006"},
		{"too large", fmt.Errorf("%w: 200MB", ErrFileTooLarge), "FILE001"},
		{"upload disabled", ErrUploadDisabled, "PIPE001"},
		{"no grid", ErrNoGrid, "PIPE002"},
		{"not idle", ErrNotIdle, "PIPE003"},
		{"not complete", ErrNotComplete, "PIPE004"},
		{"too many runs", ErrTooManyRuns, "RUN001"},
		{"step failure", &StepError{Stage: StageSourceA, Err: errors.New("503")}, "PIPE006"},
		{"step timeout reports cause", &StepError{Stage: StageSourceA, Err: context.DeadlineExceeded}, "RUN003"},
		{"step cancelled reports cause", &StepError{Stage: StageSourceB, Err: context.Canceled}, "RUN002"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"case insensitive", errors.New("INVALID WORKBOOK"), "FILE003"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			if tt.err != nil {
				assert.NotEmpty(t, got.Message)
				assert.NotEmpty(t, got.Action)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	assert.Empty(t, FormatUserError(nil))
	assert.Equal(t,
		"Nenhum arquivo foi selecionado (Código: FILE004). Selecione uma planilha Excel para enviar",
		FormatUserError(ErrNoFile))
}

func TestIsUserFacing(t *testing.T) {
	assert.False(t, IsUserFacing(nil))
	assert.True(t, IsUserFacing(ErrNoGrid))
	assert.False(t, IsUserFacing(errors.New("boom")))
}

func TestErrorPatterns_AllHaveCodes(t *testing.T) {
	for _, ep := range errorPatterns {
		assert.NotEmpty(t, ep.pattern)
		assert.NotEmpty(t, ep.msg.Code, "pattern %q", ep.pattern)
		assert.NotEmpty(t, ep.msg.Message, "pattern %q", ep.pattern)
		assert.NotEmpty(t, ep.msg.Action, "pattern %q", ep.pattern)
	}
}
