package files

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nexusforge/console/pkg/common/models"
)

var (
	ErrExtensionNotAllowed = errors.New("extension not allowed")
	ErrUnknownFileType     = errors.New("unknown file type")
	ErrDuplicateFile       = errors.New("file already uploaded")
	ErrNoSelection         = errors.New("Select a file")
	ErrNotPreviewable      = errors.New("file is not an image")
	ErrPreviewTooLarge     = errors.New("image too large to preview")
	ErrClosed              = errors.New("file manager is closed")
)

var allowedExtensions = map[models.FileType][]string{
	models.FileTypeDataset:    {".zip"},
	models.FileTypeModelFile:  {".pt", ".pth", ".onnx", ".h5", ".pkl"},
	models.FileTypeMetrics:    {".png", ".jpg", ".jpeg", ".csv", ".json"},
	models.FileTypePythonCode: {".py"},
}

var imageExtensions = []string{".png", ".jpg", ".jpeg"}

type ValidationError struct {
	File     string
	FileType models.FileType
	reason   error
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.reason, ErrExtensionNotAllowed):
		return fmt.Sprintf("%s: %s files must end in %s", e.File, e.FileType, strings.Join(AllowedExtensions(e.FileType), ", "))
	case errors.Is(e.reason, ErrDuplicateFile):
		return fmt.Sprintf("%s is already uploaded as %s", e.File, e.FileType)
	default:
		return fmt.Sprintf("%s: %s %q", e.File, e.reason, e.FileType)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AllowedExtensions lists the suffixes accepted for fileType.
func AllowedExtensions(fileType models.FileType) []string {
	return append([]string(nil), allowedExtensions[fileType]...)
}

// ValidateFile checks name against the extension allow-list of fileType.
// The match is a case-insensitive suffix match.
func ValidateFile(name string, fileType models.FileType) error {
	exts, ok := allowedExtensions[fileType]
	if !ok {
		return &ValidationError{File: name, FileType: fileType, reason: ErrUnknownFileType}
	}
	if !hasSuffix(name, exts) {
		return &ValidationError{File: name, FileType: fileType, reason: ErrExtensionNotAllowed}
	}
	return nil
}

func Accepts(name string, fileType models.FileType) bool {
	return ValidateFile(name, fileType) == nil
}

// IsImage reports whether f is a metrics graph that can be previewed.
func IsImage(f models.ModelFile) bool {
	return f.FileType == models.FileTypeMetrics && hasSuffix(f.FileName, imageExtensions)
}

func hasSuffix(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
