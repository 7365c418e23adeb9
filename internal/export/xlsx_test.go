package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/matthewbaird/signify/internal/signallog"
	"github.com/matthewbaird/signify/internal/signals"
	"github.com/matthewbaird/signify/internal/types"
)

func TestWriteTimeline(t *testing.T) {
	entries := signals.Recompute(signallog.DemoLogs()[101])
	person := types.Person{ID: 101, Name: "Tommy Wilson"}

	var buf bytes.Buffer
	require.NoError(t, WriteTimeline(&buf, person, entries))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, titleRows+1+len(entries))

	assert.Equal(t, "Tommy Wilson (#101), current risk High Risk", rows[0][0])
	assert.Equal(t, Header, rows[titleRows])

	first := rows[titleRows+1]
	assert.Equal(t, "2023-01-15", first[0])
	assert.Equal(t, "2", first[3])
	assert.Equal(t, "2", first[4])
	assert.Equal(t, "Medium Risk", first[5])
	assert.Equal(t, "School transfer liaison", first[6])
	assert.Equal(t, "Referral", first[7])

	last := rows[len(rows)-1]
	assert.Equal(t, "5", last[4])
	assert.Equal(t, "High Risk", last[5])
}

func TestWriteTimeline_RiskCellsAreStyledPerCategory(t *testing.T) {
	entries := signals.Recompute(signallog.DemoLogs()[101])

	var buf bytes.Buffer
	require.NoError(t, WriteTimeline(&buf, types.Person{ID: 101}, entries))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	amber, err := f.GetCellStyle(SheetName, cellName(riskColumn, titleRows+2))
	require.NoError(t, err)
	red, err := f.GetCellStyle(SheetName, cellName(riskColumn, titleRows+3))
	require.NoError(t, err)
	redAgain, err := f.GetCellStyle(SheetName, cellName(riskColumn, titleRows+4))
	require.NoError(t, err)

	assert.NotEqual(t, amber, red)
	assert.Equal(t, red, redAgain)
}

func TestWriteTimeline_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTimeline(&buf, types.Person{ID: 104, Name: "Sophia Martinez"}, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, titleRows+1)
	assert.Contains(t, rows[0][0], "Low Risk")
}
