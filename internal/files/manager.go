package files

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"clcconvert/internal/config"
	apperrors "clcconvert/internal/errors"
)

// OutputPaths are the files produced for one input
type OutputPaths struct {
	Data   string
	Errors string
}

// DeriveOutputPaths names the outputs after the input's base name (file name
// minus its final extension). They go next to the input unless outputDir is set.
func DeriveOutputPaths(input, outputDir string) OutputPaths {
	dir := filepath.Dir(input)
	if outputDir != "" {
		dir = outputDir
	}
	name := filepath.Base(input)
	base := strings.TrimSuffix(name, filepath.Ext(name))

	return OutputPaths{
		Data:   filepath.Join(dir, base+config.DataFileExtension),
		Errors: filepath.Join(dir, base+config.ErrorsFileSuffix),
	}
}

// Manager provides the file operations behind atomic output commits
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger.With(slog.String("component", "files"))}
}

// EnsureDirectory creates a directory with all parent directories
func (m *Manager) EnsureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create directory %s", dir), err)
	}
	return nil
}

// FileExists checks if a regular file exists at the given path
func (m *Manager) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteFunc streams content into a staged file
type WriteFunc func(w io.Writer) error

// backupSuffix marks a replaced output held aside until Commit succeeds
const backupSuffix = ".prev"

type stagedFile struct {
	target string
	temp   string
}

// Transaction groups the outputs of one conversion. Staged files are
// written to temporaries in the target directory and only renamed into
// place on Commit; nothing is visible under a target name before that.
type Transaction struct {
	m        *Manager
	staged   []stagedFile
	removals []string
	done     bool
}

// Begin starts a new output transaction
func (m *Manager) Begin() *Transaction {
	return &Transaction{m: m}
}

// Stage writes content for target into a temporary sibling file
func (tx *Transaction) Stage(target string, write WriteFunc) error {
	if tx.done {
		return apperrors.NewStorageError("transaction already finished", nil)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), config.StagingFilePattern)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to stage %s", target), err)
	}
	tx.staged = append(tx.staged, stagedFile{target: target, temp: tmp.Name()})

	if err := write(tmp); err != nil {
		tmp.Close()
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", target), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.NewStorageError(fmt.Sprintf("failed to sync %s", target), err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to close %s", target), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to set permissions on %s", target), err)
	}

	return nil
}

// RemoveOnCommit schedules a leftover file from an earlier run for removal
func (tx *Transaction) RemoveOnCommit(path string) {
	tx.removals = append(tx.removals, path)
}

// Commit renames every staged file into place and removes scheduled
// leftovers. Files being replaced or removed are first moved aside; if any
// step fails, new outputs are removed and the moved-aside files are put back,
// so the previous run's outputs survive a failed commit.
func (tx *Transaction) Commit() error {
	if tx.done {
		return apperrors.NewStorageError("transaction already finished", nil)
	}
	tx.done = true

	type aside struct {
		original string
		backup   string
	}
	var (
		committed []string
		backups   []aside
	)
	moveAside := func(path, backup string) error {
		info, err := os.Lstat(path)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
			// directories are left alone so the rename below fails
			return nil
		}
		if err != nil {
			return err
		}
		if err := os.Rename(path, backup); err != nil {
			return err
		}
		backups = append(backups, aside{original: path, backup: backup})
		return nil
	}
	rollback := func() {
		for _, path := range committed {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				tx.m.logger.Warn("Failed to roll back output",
					slog.String("file", path),
					slog.String("error", err.Error()))
			}
		}
		for _, b := range backups {
			if err := os.Rename(b.backup, b.original); err != nil {
				tx.m.logger.Warn("Failed to restore previous output",
					slog.String("file", b.original),
					slog.String("backup", b.backup),
					slog.String("error", err.Error()))
			}
		}
		tx.cleanup()
	}

	for _, s := range tx.staged {
		if err := moveAside(s.target, s.temp+backupSuffix); err != nil {
			rollback()
			return apperrors.NewStorageError(fmt.Sprintf("failed to move previous %s aside", s.target), err)
		}
		if err := os.Rename(s.temp, s.target); err != nil {
			rollback()
			return apperrors.NewStorageError(fmt.Sprintf("failed to move %s into place", s.target), err)
		}
		committed = append(committed, s.target)
	}

	for i, path := range tx.removals {
		backup := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.removed-%d", filepath.Base(path), i))
		if err := moveAside(path, backup); err != nil {
			rollback()
			return apperrors.NewStorageError(fmt.Sprintf("failed to remove stale %s", path), err)
		}
	}

	for _, b := range backups {
		if err := os.Remove(b.backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
			tx.m.logger.Warn("Failed to remove previous output",
				slog.String("file", b.backup),
				slog.String("error", err.Error()))
		}
	}

	tx.m.logger.Debug("Outputs committed",
		slog.Any("files", committed),
		slog.Int("removed", len(tx.removals)))
	return nil
}

// Discard deletes all staged temporaries. Safe to call after Commit.
func (tx *Transaction) Discard() {
	if tx.done {
		return
	}
	tx.done = true
	tx.cleanup()
}

func (tx *Transaction) cleanup() {
	for _, s := range tx.staged {
		if err := os.Remove(s.temp); err != nil && !errors.Is(err, fs.ErrNotExist) {
			tx.m.logger.Warn("Failed to remove staging file",
				slog.String("file", s.temp),
				slog.String("error", err.Error()))
		}
	}
}
