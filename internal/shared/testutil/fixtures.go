package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// PlantCSV is a two-tag, two-sample historian export. TAG_1! sanitizes to
// TAG1, "Desc  A" collapses to "Desc A" and abc becomes a bad sample.
const PlantCSV = "t,TAG_1!,T2\r\n" +
	"d,Desc  A,Desc B\r\n" +
	"u,PSI,F\r\n" +
	"2024-01-15 08:00:00,10.0,20.0\r\n" +
	"2024-01-15 08:00:01,11.0,abc\r\n"

// PlantCLC is the document PlantCSV converts to with default options
const PlantCLC = "CSV to CLC File Conversion\r\n" +
	"Developed by D.P. (AMT)\r\n" +
	"2\r\n" +
	"2\r\n" +
	"01-15-2024 08:00:00\r\n" +
	"1\r\n" +
	"2\r\n" +
	"==================================================\r\n" +
	"TAG1~~~TAG1~~~Desc A~~~PSI\r\n" +
	"T2~~~T2~~~Desc B~~~F\r\n" +
	"==================================================\r\n" +
	"01-15-2024 08:00:00,10.0,G,20.0,G\r\n" +
	"01-15-2024 08:00:01,11.0,G,-9999,B\r\n" +
	"==================================================\r\n"

// WriteFile writes content to dir/name and returns the path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// ReadFile returns the contents of path as a string
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// WriteWorkbook saves rows to the first sheet of dir/name; nil values leave
// the cell blank.
func WriteWorkbook(t *testing.T, dir, name string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, ref, v))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}
