package core

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

var (
	ErrNoFile       = errors.New("no file provided")
	ErrTooManyFiles = errors.New("only one file can be selected")
	ErrFileType     = errors.New("file type not accepted")
	ErrFileTooLarge = errors.New("file too large")
)

// acceptedExtensions and acceptedTypes mirror the picker's accept attribute.
var (
	acceptedExtensions = []string{".xlsx", ".xls"}
	acceptedTypes      = []string{MIMETypeXLSX, MIMETypeXLS}
)

// AcceptAttr is the value of the file input's accept attribute.
var AcceptAttr = strings.Join(append(append([]string{}, acceptedExtensions...), acceptedTypes...), ",")

// AcceptFile checks a selected file against the spreadsheet types.
// Only the name and declared type are checked; content is validated when parsed.
func AcceptFile(name, contentType string) error {
	if name == "" {
		return ErrNoFile
	}

	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range acceptedExtensions {
		if ext == e {
			return nil
		}
	}

	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		for _, t := range acceptedTypes {
			if mt == t {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: %s", ErrFileType, name)
}
