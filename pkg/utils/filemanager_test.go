package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.CSV", "c.xlsm", "old.xls", "readme.txt", "~$b.xlsx"} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0o755))

	fm := NewFileManager(dir, t.TempDir(), t.TempDir())
	files, err := fm.DiscoverInputFiles([]string{".xlsx", ".xlsm", ".csv"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.CSV"),
		filepath.Join(dir, "b.xlsx"),
		filepath.Join(dir, "c.xlsm"),
	}, files)

	_, err = NewFileManager(filepath.Join(dir, "missing"), "", "").DiscoverInputFiles(nil)
	assert.Error(t, err)
}

func TestArchiveInputFile(t *testing.T) {
	in, archive := t.TempDir(), t.TempDir()
	fm := NewFileManager(in, t.TempDir(), archive)
	fm.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }

	src := filepath.Join(in, "rates.xlsx")
	touch(t, src)
	dst, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archive, "rates.xlsx"), dst)
	assert.False(t, FileExists(src))
	assert.True(t, FileExists(dst))

	// Same name again gets a timestamp suffix.
	touch(t, src)
	dst, err = fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archive, "rates_20261014_093000.xlsx"), dst)

	fm.UseTimestampSubdirs = true
	touch(t, src)
	dst, err = fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archive, "2026", "10", "14", "rates.xlsx"), dst)
}

func TestArchiveDisabled(t *testing.T) {
	fm := NewFileManager(t.TempDir(), t.TempDir(), t.TempDir())
	fm.ArchiveOnSuccess = false
	src := filepath.Join(fm.InputDir, "rates.csv")
	touch(t, src)

	dst, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, src, dst)
	assert.True(t, FileExists(src))
}

func TestGenerateOutputFileName(t *testing.T) {
	today := time.Now().Format(DateLayout)

	assert.Equal(t, "Reporte_"+today+".xlsx", GenerateOutputFileName("Reporte_{date}.xlsx", nil))
	assert.Equal(t, "Reporte_14.10.2026_rates.xlsx",
		GenerateOutputFileName("Reporte_{date}_{input}.xlsx", map[string]string{"date": "14.10.2026", "input": "rates"}))
	assert.Equal(t, "plain.xlsx", GenerateOutputFileName("plain", nil))

	name := GenerateOutputFileName("{uuid}", nil)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}\.xlsx$`), name)

	ts := GenerateOutputFileName("r_{timestamp}.XLSX", nil)
	assert.True(t, strings.HasPrefix(ts, "r_"))
	assert.True(t, strings.HasSuffix(ts, ".XLSX"))
}

func TestInputStem(t *testing.T) {
	assert.Equal(t, "rates_am", InputStem("/in/rates_am.xlsx"))
	assert.Equal(t, "noext", InputStem("noext"))
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	summary := ProcessingSummary{
		StartTime:       start,
		EndTime:         start.Add(2 * time.Second),
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		TotalRecords:    130,
		ProcessedFiles: []ProcessedFileInfo{{
			InputFile:  "in/a.xlsx",
			OutputFile: "out/Reporte_14.10.2026_a.xlsx",
			Records:    130,
		}},
		FailedFilesList: []FailedFileInfo{{InputFile: "in/b.xls", ErrorMessage: "unsupported input format: .xls"}},
	}

	path, err := WriteSummaryLog(summary, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "processing_summary_20261014_090002.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Total Records:  130")
	assert.Contains(t, text, "Duration:       2s")
	assert.Contains(t, text, "Error: unsupported input format: .xls")
}
