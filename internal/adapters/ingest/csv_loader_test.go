package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"login-activity-monitor/internal/types"
	"login-activity-monitor/internal/types/analysis"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "series.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVLoader_LoadSeries_Valid(t *testing.T) {
	path := writeCSV(t, "timestamp,logins\n"+
		"2024-03-04 08:00:00,120\n"+
		"2024-03-04 08:01:00,130.5\n"+
		"2024-03-04 08:02:00,110\n")

	points, info, err := NewCSVLoader().LoadSeries(path)
	require.NoError(t, err)

	require.Len(t, points, 3)
	assert.Equal(t, 120.0, points[0].Value)
	assert.Equal(t, 130.5, points[1].Value)
	assert.Equal(t, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), points[0].Timestamp)

	assert.Equal(t, 3, info.Points)
	assert.Equal(t, 0, info.CoercedRows)
	assert.Equal(t, points[0].Timestamp, info.FirstPoint)
	assert.Equal(t, points[2].Timestamp, info.LastPoint)
}

func TestCSVLoader_LoadSeries_SortsByTimestamp(t *testing.T) {
	path := writeCSV(t, "timestamp,logins\n"+
		"2024-03-04 08:02:00,3\n"+
		"2024-03-04 08:00:00,1\n"+
		"2024-03-04 08:01:00,2\n")

	points, _, err := NewCSVLoader().LoadSeries(path)
	require.NoError(t, err)

	assert.True(t, types.IsChronological(points))
	assert.Equal(t, 1.0, points[0].Value)
	assert.Equal(t, 3.0, points[2].Value)
}

func TestCSVLoader_LoadSeries_CoercesNonNumeric(t *testing.T) {
	path := writeCSV(t, "timestamp,logins\n"+
		"2024-03-04 08:00:00,abc\n"+
		"2024-03-04 08:01:00,\n"+
		"2024-03-04 08:02:00,NaN\n"+
		"2024-03-04 08:03:00,50\n")

	points, info, err := NewCSVLoader().LoadSeries(path)
	require.NoError(t, err)

	require.Len(t, points, 4)
	assert.Equal(t, 0.0, points[0].Value)
	assert.Equal(t, 0.0, points[1].Value)
	assert.Equal(t, 0.0, points[2].Value)
	assert.Equal(t, 50.0, points[3].Value)
	assert.Equal(t, 3, info.CoercedRows)
}

func TestCSVLoader_LoadSeries_CoercesNegative(t *testing.T) {
	path := writeCSV(t, "timestamp,logins\n"+
		"2024-03-04 08:00:00,-5\n"+
		"2024-03-04 08:01:00,10\n")

	points, info, err := NewCSVLoader().LoadSeries(path)
	require.NoError(t, err)

	assert.Equal(t, 0.0, points[0].Value)
	assert.Equal(t, 10.0, points[1].Value)
	assert.Equal(t, 1, info.CoercedRows)
}

func TestCSVLoader_LoadSeries_ShortRowCoercesValue(t *testing.T) {
	path := writeCSV(t, "timestamp,logins\n"+
		"2024-03-04 08:00:00\n"+
		"2024-03-04 08:01:00,7\n")

	points, info, err := NewCSVLoader().LoadSeries(path)
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, 0.0, points[0].Value)
	assert.Equal(t, 1, info.CoercedRows)
}

func TestCSVLoader_LoadSeries_AcceptsMultipleTimestampLayouts(t *testing.T) {
	path := writeCSV(t, "timestamp,logins\n"+
		"2024-03-04T08:00:00Z,1\n"+
		"2024-03-04T08:01:00,2\n"+
		"2024-03-04 08:02,3\n")

	points, _, err := NewCSVLoader().LoadSeries(path)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 8, points[2].Timestamp.Hour())
	assert.Equal(t, 2, points[2].Timestamp.Minute())
}

func TestCSVLoader_LoadSeries_DuplicateTimestampsPreserved(t *testing.T) {
	path := writeCSV(t, "timestamp,logins\n"+
		"2024-03-04 08:00:00,1\n"+
		"2024-03-04 08:00:00,2\n")

	points, _, err := NewCSVLoader().LoadSeries(path)
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, 1.0, points[0].Value)
	assert.Equal(t, 2.0, points[1].Value)
}

func TestCSVLoader_LoadSeries_SingleColumnRejected(t *testing.T) {
	path := writeCSV(t, "timestamp\n2024-03-04 08:00:00\n")

	_, _, err := NewCSVLoader().LoadSeries(path)
	require.Error(t, err)
	assert.True(t, analysis.IsDataError(err))
}

func TestCSVLoader_LoadSeries_EmptyFileRejected(t *testing.T) {
	path := writeCSV(t, "")

	_, _, err := NewCSVLoader().LoadSeries(path)
	require.Error(t, err)
	assert.True(t, analysis.IsDataError(err))
}

func TestCSVLoader_LoadSeries_HeaderOnlyRejected(t *testing.T) {
	path := writeCSV(t, "timestamp,logins\n")

	_, _, err := NewCSVLoader().LoadSeries(path)
	require.Error(t, err)
	assert.True(t, analysis.IsDataError(err))
}

func TestCSVLoader_LoadSeries_BadTimestampRejected(t *testing.T) {
	path := writeCSV(t, "timestamp,logins\n03/04/2024,5\n")

	_, _, err := NewCSVLoader().LoadSeries(path)
	require.Error(t, err)
	assert.True(t, analysis.IsDataError(err))
}

func TestCSVLoader_LoadSeries_MissingFile(t *testing.T) {
	_, _, err := NewCSVLoader().LoadSeries(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.False(t, analysis.IsDataError(err), "I/O failures are not data contract violations")
}
