package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "clcconvert/internal/errors"
)

func writeString(s string) WriteFunc {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDeriveOutputPaths(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		outputDir string
		want      OutputPaths
	}{
		{
			name:  "csv next to input",
			input: filepath.Join("data", "plant.csv"),
			want: OutputPaths{
				Data:   filepath.Join("data", "plant.clc"),
				Errors: filepath.Join("data", "plant_errors.txt"),
			},
		},
		{
			name:  "only final extension replaced",
			input: filepath.Join("data", "unit.2024.01.xlsx"),
			want: OutputPaths{
				Data:   filepath.Join("data", "unit.2024.01.clc"),
				Errors: filepath.Join("data", "unit.2024.01_errors.txt"),
			},
		},
		{
			name:      "output dir override",
			input:     filepath.Join("in", "plant.csv"),
			outputDir: "out",
			want: OutputPaths{
				Data:   filepath.Join("out", "plant.clc"),
				Errors: filepath.Join("out", "plant_errors.txt"),
			},
		},
		{
			name:  "no extension",
			input: "plant",
			want:  OutputPaths{Data: "plant.clc", Errors: "plant_errors.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveOutputPaths(tt.input, tt.outputDir))
		})
	}
}

func TestTransaction_Commit(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil)

	dataPath := filepath.Join(dir, "plant.clc")
	errorsPath := filepath.Join(dir, "plant_errors.txt")

	tx := m.Begin()
	require.NoError(t, tx.Stage(dataPath, writeString("data")))
	require.NoError(t, tx.Stage(errorsPath, writeString("warn")))
	assert.False(t, m.FileExists(dataPath), "nothing visible before commit")

	require.NoError(t, tx.Commit())
	tx.Discard()

	content, err := os.ReadFile(dataPath)
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))
	assert.True(t, m.FileExists(errorsPath))
	assert.ElementsMatch(t, []string{"plant.clc", "plant_errors.txt"}, dirEntries(t, dir))

	info, err := os.Stat(dataPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestTransaction_CommitRemovesStale(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil)
	stale := filepath.Join(dir, "plant_errors.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	tx := m.Begin()
	require.NoError(t, tx.Stage(filepath.Join(dir, "plant.clc"), writeString("data")))
	tx.RemoveOnCommit(stale)
	tx.RemoveOnCommit(filepath.Join(dir, "never_existed.txt"))
	require.NoError(t, tx.Commit())

	assert.Equal(t, []string{"plant.clc"}, dirEntries(t, dir))
}

func TestTransaction_StageFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil)

	tx := m.Begin()
	require.NoError(t, tx.Stage(filepath.Join(dir, "plant.clc"), writeString("data")))
	err := tx.Stage(filepath.Join(dir, "plant_errors.txt"), func(io.Writer) error {
		return errors.New("encoder failed")
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))

	tx.Discard()
	assert.Empty(t, dirEntries(t, dir))
}

func TestTransaction_StageMissingDirectory(t *testing.T) {
	tx := NewManager(nil).Begin()
	err := tx.Stage(filepath.Join(t.TempDir(), "missing", "plant.clc"), writeString("x"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	tx.Discard()
}

func TestTransaction_CommitFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil)

	// a directory under the second target name makes its rename fail
	blocked := filepath.Join(dir, "plant_errors.txt")
	require.NoError(t, os.Mkdir(blocked, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(blocked, "keep"), []byte("x"), 0644))

	tx := m.Begin()
	require.NoError(t, tx.Stage(filepath.Join(dir, "plant.clc"), writeString("data")))
	require.NoError(t, tx.Stage(blocked, writeString("warn")))

	err := tx.Commit()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	assert.Equal(t, []string{"plant_errors.txt"}, dirEntries(t, dir))
}

func TestTransaction_CommitFailureKeepsPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil)

	previous := filepath.Join(dir, "plant.clc")
	require.NoError(t, os.WriteFile(previous, []byte("previous run"), 0644))
	blocked := filepath.Join(dir, "plant_errors.txt")
	require.NoError(t, os.Mkdir(blocked, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(blocked, "keep"), []byte("x"), 0644))

	tx := m.Begin()
	require.NoError(t, tx.Stage(previous, writeString("new run")))
	require.NoError(t, tx.Stage(blocked, writeString("warn")))

	require.Error(t, tx.Commit())

	data, err := os.ReadFile(previous)
	require.NoError(t, err)
	assert.Equal(t, "previous run", string(data))
	assert.ElementsMatch(t, []string{"plant.clc", "plant_errors.txt"}, dirEntries(t, dir))
}

func TestTransaction_CommitReplacesPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil)

	target := filepath.Join(dir, "plant.clc")
	require.NoError(t, os.WriteFile(target, []byte("previous run"), 0644))

	tx := m.Begin()
	require.NoError(t, tx.Stage(target, writeString("new run")))
	require.NoError(t, tx.Commit())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new run", string(data))
	assert.Equal(t, []string{"plant.clc"}, dirEntries(t, dir))
}

func TestTransaction_FinishedTwice(t *testing.T) {
	tx := NewManager(nil).Begin()
	require.NoError(t, tx.Commit())
	assert.Error(t, tx.Commit())
	assert.Error(t, tx.Stage(filepath.Join(t.TempDir(), "x.clc"), writeString("x")))
}

func TestEnsureDirectory(t *testing.T) {
	m := NewManager(nil)
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, m.EnsureDirectory(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	err = m.EnsureDirectory(filepath.Join(file, "sub"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage), fmt.Sprint(err))
}
