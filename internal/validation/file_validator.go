package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"clcconvert/internal/dataprocessing"
	apperrors "clcconvert/internal/errors"
)

// Plain .txt is not an input: the converter writes its diagnostics as
// <base>_errors.txt next to the inputs.
var sourceKinds = map[string]dataprocessing.SourceKind{
	".csv":  dataprocessing.SourceDelimited,
	".xlsx": dataprocessing.SourceSpreadsheet,
	".xlsm": dataprocessing.SourceSpreadsheet,
}

// SupportedExtensions lists the accepted input extensions
func SupportedExtensions() []string {
	return []string{".csv", ".xlsx", ".xlsm"}
}

// SourceKindFor detects the source kind from the file extension
func SourceKindFor(path string) (dataprocessing.SourceKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	kind, ok := sourceKinds[ext]
	if !ok {
		return 0, apperrors.NewReadError(
			fmt.Sprintf("unsupported file type %q (expected one of %s)", ext, strings.Join(SupportedExtensions(), ", ")), nil)
	}
	return kind, nil
}

// FileValidator checks inputs and output locations before conversion
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Debug("File does not exist", slog.String("file", path))
		return apperrors.NewReadError(fmt.Sprintf("file %s does not exist", path), err)
	}
	if err != nil {
		return apperrors.NewReadError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		return apperrors.NewReadError(fmt.Sprintf("%s is a directory, not a file", path), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewReadError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateInputFile checks that path is a readable input of a supported kind
// and returns that kind. Office lock files (~$name.xlsx) are rejected.
func (v *FileValidator) ValidateInputFile(path string) (dataprocessing.SourceKind, error) {
	kind, err := SourceKindFor(path)
	if err != nil {
		return 0, err
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return 0, apperrors.NewReadError(fmt.Sprintf("file %s is a temporary Office lock file", path), nil)
	}
	if err := v.ValidateFile(path); err != nil {
		return 0, err
	}
	return kind, nil
}

// ValidateInputDirectory checks that dir exists and is a directory
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return apperrors.NewReadError(fmt.Sprintf("input directory %s does not exist", dir), err)
	}
	if err != nil {
		return apperrors.NewReadError(fmt.Sprintf("failed to stat directory %s", dir), err)
	}
	if !info.IsDir() {
		return apperrors.NewReadError(fmt.Sprintf("%s is not a directory", dir), nil)
	}
	return nil
}

// ValidateOutputDirectory checks that the output directory exists and is
// writable. It never creates directories; callers that may do so (the CLI's
// -out flag) create them first.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		v.logger.Error("Output directory is not accessible",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not accessible", dir), err)
	}
	if !info.IsDir() {
		return apperrors.NewStorageError(fmt.Sprintf("output path %s is not a directory", dir), nil)
	}

	probe, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// WithinRoot reports whether path lies inside root once both are cleaned and
// their symlinks resolved. Paths that do not exist yet are judged by their
// longest existing ancestor, so a link cannot be used to step outside root.
func WithinRoot(root, path string) bool {
	if !filepath.IsAbs(root) || !filepath.IsAbs(path) {
		return false
	}
	rel, err := filepath.Rel(resolveExisting(root), resolveExisting(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveExisting evaluates symlinks on the longest existing prefix of path
// and re-appends the remainder.
func resolveExisting(path string) string {
	path = filepath.Clean(path)
	rest := ""
	for {
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(path)
		if parent == path {
			return filepath.Join(path, rest)
		}
		rest = filepath.Join(filepath.Base(path), rest)
		path = parent
	}
}
