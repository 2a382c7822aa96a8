package operations

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clcconvert/internal/config"
	apperrors "clcconvert/internal/errors"
	"clcconvert/internal/infrastructure"
	"clcconvert/internal/shared/testutil"
)

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	return NewConverter(OptionsFromConfig(config.Default().Conversion), nil, nil)
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestConvert_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "plant.csv", testutil.PlantCSV)

	res := newTestConverter(t).Convert(context.Background(), input)
	require.True(t, res.OK(), res.Message)

	assert.Equal(t, filepath.Join(dir, "plant.clc"), res.Output)
	assert.Equal(t, testutil.PlantCLC, testutil.ReadFile(t, res.Output))
	assert.Empty(t, res.ErrorsFile)
	assert.NoFileExists(t, filepath.Join(dir, "plant_errors.txt"))

	assert.Equal(t, 2, res.Tags)
	assert.Equal(t, 2, res.Samples)
	assert.Equal(t, 1, res.BadSamples)
	assert.Equal(t, "plant.csv conversion complete", filepath.Base(res.Notice()))
}

func TestConvert_OversizeTagID(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "long.csv",
		"t,ABCDEFGHIJKLM\nd,Flow\nu,GPM\n2024-01-15 08:00:00,1\n2024-01-15 08:01:00,2\n")

	res := newTestConverter(t).Convert(context.Background(), input)
	require.True(t, res.OK(), res.Message)

	require.Equal(t, []string{"line9: ABCDEFGHIJKLM variable length too long"}, res.Warnings)
	assert.Equal(t, filepath.Join(dir, "long_errors.txt"), res.ErrorsFile)
	assert.Equal(t, "line9: ABCDEFGHIJKLM variable length too long\r\n", testutil.ReadFile(t, res.ErrorsFile))

	lines := strings.Split(testutil.ReadFile(t, res.Output), "\r\n")
	assert.Equal(t, "ABCDEFGHIJKLM~~~ABCDEFGHIJKLM~~~Flow~~~GPM", lines[8])
	assert.Equal(t, "60", lines[5])
}

func TestConvert_Failures(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		kind    apperrors.ErrorType
		stage   Stage
	}{
		{
			name:  "missing file",
			file:  "absent.csv",
			kind:  apperrors.ErrTypeRead,
			stage: StageValidate,
		},
		{
			name:    "unsupported extension",
			file:    "plant.json",
			content: "{}",
			kind:    apperrors.ErrTypeRead,
			stage:   StageValidate,
		},
		{
			name:    "ragged table",
			file:    "ragged.csv",
			content: "t,A,B\nd,x,y\nu,1,2\n2024-01-15 08:00:00,1\n2024-01-15 08:00:01,1,2\n",
			kind:    apperrors.ErrTypeValidation,
			stage:   StageLoad,
		},
		{
			name:    "no tags",
			file:    "notags.csv",
			content: "t\nd\nu\n2024-01-15 08:00:00\n2024-01-15 08:00:01\n",
			kind:    apperrors.ErrTypeValidation,
			stage:   StageLoad,
		},
		{
			name:    "single data row",
			file:    "short.csv",
			content: "t,A\nd,x\nu,1\n2024-01-15 08:00:00,1\n",
			kind:    apperrors.ErrTypeTimestamp,
			stage:   StageTimestamps,
		},
		{
			name:    "negative period",
			file:    "backwards.csv",
			content: "t,A\nd,x\nu,1\n2024-01-15 08:00:05,1\n2024-01-15 08:00:00,2\n",
			kind:    apperrors.ErrTypeTimestamp,
			stage:   StageTimestamps,
		},
		{
			name:    "unparseable timestamp",
			file:    "garbage.csv",
			content: "t,A\nd,x\nu,1\nsoon,1\nlater,2\n",
			kind:    apperrors.ErrTypeTimestamp,
			stage:   StageTimestamps,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			input := filepath.Join(dir, tt.file)
			if tt.content != "" {
				testutil.WriteFile(t, dir, tt.file, tt.content)
			}

			res := newTestConverter(t).Convert(context.Background(), input)

			assert.False(t, res.OK())
			assert.Equal(t, StatusFailure, res.Status)
			assert.Equal(t, tt.kind, res.Kind)
			assert.Equal(t, tt.stage, res.Stage)
			assert.NotEmpty(t, res.Message)
			assert.Empty(t, res.Output)
			assert.True(t, strings.HasPrefix(res.Notice(), input+" conversion failed: "))

			for _, name := range listDir(t, dir) {
				assert.False(t, strings.HasSuffix(name, ".clc"), "unexpected output %s", name)
				assert.False(t, strings.HasSuffix(name, "_errors.txt"), "unexpected output %s", name)
				assert.False(t, strings.HasPrefix(name, ".clc-staging-"), "leftover staging file %s", name)
			}
		})
	}
}

func TestConvert_RemovesStaleErrorsFile(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "plant.csv", testutil.PlantCSV)
	stale := testutil.WriteFile(t, dir, "plant_errors.txt", "line9: OLD variable length too long\r\n")

	res := newTestConverter(t).Convert(context.Background(), input)
	require.True(t, res.OK(), res.Message)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, res.Output)
}

func TestConvert_OverwritesPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "plant.csv", testutil.PlantCSV)
	testutil.WriteFile(t, dir, "plant.clc", "old contents")

	res := newTestConverter(t).Convert(context.Background(), input)
	require.True(t, res.OK(), res.Message)
	assert.True(t, strings.HasPrefix(testutil.ReadFile(t, res.Output), "CSV to CLC File Conversion\r\n"))
}

func TestConvert_OutputDir(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	input := testutil.WriteFile(t, inDir, "plant.csv", testutil.PlantCSV)

	res := newTestConverter(t).WithOutputDir(outDir).Convert(context.Background(), input)
	require.True(t, res.OK(), res.Message)

	assert.Equal(t, filepath.Join(outDir, "plant.clc"), res.Output)
	assert.FileExists(t, res.Output)
	assert.NoFileExists(t, filepath.Join(inDir, "plant.clc"))
}

func TestConvert_MissingOutputDir(t *testing.T) {
	input := testutil.WriteFile(t, t.TempDir(), "plant.csv", testutil.PlantCSV)
	missing := filepath.Join(t.TempDir(), "nowhere")

	res := newTestConverter(t).WithOutputDir(missing).Convert(context.Background(), input)
	assert.False(t, res.OK())
	assert.Equal(t, apperrors.ErrTypeStorage, res.Kind)
	assert.Equal(t, StageValidate, res.Stage)
}

func TestConvert_LineEndingAndQuote(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "quoted.csv",
		"t,\"A,1\",B\nd,\"flow, main\",x\nu,1,2\n2024-01-15 08:00:00,1,2\n2024-01-15 08:00:10,3,4\n")

	opts := OptionsFromConfig(config.Default().Conversion)
	opts.Quote = '"'
	opts.UseCRLF = false

	res := NewConverter(opts, nil, nil).Convert(context.Background(), input)
	require.True(t, res.OK(), res.Message)

	out := testutil.ReadFile(t, res.Output)
	assert.NotContains(t, out, "\r\n")
	assert.Contains(t, out, "\n\"A1~~~A1~~~flow, main~~~1\"\n")
	assert.Contains(t, out, "\n01-15-2024 08:00:10,3.0,G,4.0,G\n")
}

func TestConvert_Spreadsheet(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteWorkbook(t, dir, "plant.xlsx", [][]interface{}{
		{"t", "TAG_1!", "T2"},
		{"d", "Desc  A", "Desc B"},
		{"u", "PSI", "F"},
		{time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), 10.0, 20.0},
		{time.Date(2024, 1, 15, 8, 0, 1, 0, time.UTC), 11.0, "abc"},
	})

	res := newTestConverter(t).Convert(context.Background(), input)
	require.True(t, res.OK(), res.Message)

	assert.Equal(t, filepath.Join(dir, "plant.clc"), res.Output)
	lines := strings.Split(testutil.ReadFile(t, res.Output), "\r\n")
	assert.Equal(t, "01-15-2024 08:00:00", lines[4])
	assert.Equal(t, "1", lines[5])
	assert.Equal(t, "TAG1~~~TAG1~~~Desc A~~~PSI", lines[8])
	assert.Equal(t, "01-15-2024 08:00:01,11.0,G,-9999,B", lines[12])
}

func TestConvertBatch(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "absent.csv")
	good := testutil.WriteFile(t, dir, "plant.csv", testutil.PlantCSV)

	report := newTestConverter(t).ConvertBatch(context.Background(), []string{missing, good})

	assert.NotEmpty(t, report.ID)
	require.Len(t, report.Results, 2)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Succeeded)

	assert.Equal(t, missing, report.Results[0].Input)
	assert.Equal(t, apperrors.ErrTypeRead, report.Results[0].Kind)
	assert.Equal(t, good, report.Results[1].Input)
	assert.True(t, report.Results[1].OK())

	require.Len(t, report.Successes(), 1)
	require.Len(t, report.Failures(), 1)
	assert.Equal(t, good, report.Successes()[0].Input)

	lines := strings.Split(testutil.ReadFile(t, filepath.Join(dir, "plant.clc")), "\r\n")
	assert.Len(t, lines, 15)
	assert.Equal(t, "01-15-2024 08:00:01,11.0,G,-9999,B", lines[12])
}

func TestConvertBatch_Cancelled(t *testing.T) {
	dir := t.TempDir()
	first := testutil.WriteFile(t, dir, "a.csv", testutil.PlantCSV)
	second := testutil.WriteFile(t, dir, "b.csv", testutil.PlantCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := newTestConverter(t).ConvertBatch(ctx, []string{first, second})

	require.Len(t, report.Results, 2)
	assert.Equal(t, 2, report.Failed)
	for _, res := range report.Results {
		assert.Equal(t, apperrors.ErrTypeCancelled, res.Kind)
		assert.Equal(t, "conversion cancelled: context canceled", res.Message)
	}
	assert.NoFileExists(t, filepath.Join(dir, "a.clc"))
}

func TestConvertBatch_Empty(t *testing.T) {
	report := newTestConverter(t).ConvertBatch(context.Background(), nil)
	assert.Empty(t, report.Results)
	assert.Zero(t, report.Succeeded)
	assert.Zero(t, report.Failed)
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "need 3 header rows", failureMessage(apperrors.NewAppValidationError("need 3 header rows")))
	assert.Equal(t, assert.AnError.Error(), failureMessage(assert.AnError))
}

func TestConvertBatchTo(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	input := testutil.WriteFile(t, inDir, "plant.csv", testutil.PlantCSV)

	c := newTestConverter(t)
	report := c.ConvertBatchTo(context.Background(), []string{input}, outDir)
	require.Equal(t, 1, report.Succeeded)
	assert.FileExists(t, filepath.Join(outDir, "plant.clc"))

	report = c.ConvertBatchTo(context.Background(), []string{input}, "")
	require.Equal(t, 1, report.Succeeded)
	assert.FileExists(t, filepath.Join(inDir, "plant.clc"))
}

func TestConvertBatch_LogsCarryBatchID(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFile(t, dir, "plant.csv", testutil.PlantCSV)
	bad := filepath.Join(dir, "absent.csv")

	logger, capture := testutil.NewTestLogger(t)
	c := NewConverter(OptionsFromConfig(config.Default().Conversion), logger, nil)

	report := c.ConvertBatch(context.Background(), []string{good, bad})

	converterMessages := map[string]bool{
		"batch_started":       true,
		"stage_finished":      true,
		"conversion_complete": true,
		"conversion_failed":   true,
		"batch_completed":     true,
	}
	seen := 0
	for _, r := range capture.Records() {
		if converterMessages[r.Message] {
			seen++
			assert.Equal(t, report.ID, r.TraceID, "record %q", r.Message)
		}
	}
	assert.Greater(t, seen, 5)

	testutil.AssertLogContains(t, capture, slog.LevelInfo, "conversion_complete")
	testutil.AssertLogContains(t, capture, slog.LevelError, "conversion_failed")
	done, ok := capture.Find("batch_completed")
	require.True(t, ok)
	assert.Equal(t, int64(1), done.Attrs["succeeded"])
	assert.Equal(t, int64(1), done.Attrs["failed"])

	stage, ok := capture.Find("stage_finished")
	require.True(t, ok)
	assert.Equal(t, "converter", stage.Attrs["component"])
}

func TestConvertBatch_ReusesRequestTraceID(t *testing.T) {
	ctx := infrastructure.WithTraceID(context.Background(), "req-42")
	report := newTestConverter(t).ConvertBatch(ctx, nil)
	assert.Equal(t, "req-42", report.ID)
}

type recordingNotifier struct {
	started   []int
	positions []int
	inputs    []string
	completed []*BatchReport
}

func (n *recordingNotifier) BatchStarted(_ context.Context, _ string, files int) {
	n.started = append(n.started, files)
}

func (n *recordingNotifier) FileConverted(_ context.Context, _ string, position int, res Result) {
	n.positions = append(n.positions, position)
	n.inputs = append(n.inputs, res.Input)
}

func (n *recordingNotifier) BatchCompleted(_ context.Context, report *BatchReport) {
	n.completed = append(n.completed, report)
}

func TestConvertBatch_Notifier(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "a.csv", testutil.PlantCSV)
	b := filepath.Join(dir, "missing.csv")

	n := &recordingNotifier{}
	c := newTestConverter(t)
	c.SetNotifier(n)

	report := c.WithOutputDir(t.TempDir()).ConvertBatch(context.Background(), []string{a, b})

	assert.Equal(t, []int{2}, n.started)
	assert.Equal(t, []int{1, 2}, n.positions)
	assert.Equal(t, []string{a, b}, n.inputs)
	require.Len(t, n.completed, 1)
	assert.Same(t, report, n.completed[0])
}
