package sheetio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vogtb/excel-clone/packages/spreadsheet"
)

func TestReadCSV(t *testing.T) {
	t.Run("Basic", func(t *testing.T) {
		sheet, rows, cols, err := ReadCSV(strings.NewReader("1,2\n=A1+B1,,x\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, rows)
		assert.Equal(t, 3, cols)
		assert.Equal(t, spreadsheet.Snapshot{
			"A1": "1",
			"B1": "2",
			"A2": "=A1+B1",
			"C2": "x",
		}, sheet)
	})

	t.Run("QuotedFields", func(t *testing.T) {
		input := "\"a,b\",\"say \"\"hi\"\"\"\r\n\"two\nlines\",=SUM(A1:A2)\r\n"
		sheet, rows, cols, err := ReadCSV(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 2, rows)
		assert.Equal(t, 2, cols)
		assert.Equal(t, "a,b", sheet["A1"])
		assert.Equal(t, `say "hi"`, sheet["B1"])
		assert.Equal(t, "two\nlines", sheet["A2"])
		assert.Equal(t, "=SUM(A1:A2)", sheet["B2"])
	})

	t.Run("Empty", func(t *testing.T) {
		sheet, rows, cols, err := ReadCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, sheet)
		assert.Equal(t, 1, rows)
		assert.Equal(t, 1, cols)
	})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, [][]string{
		{"1", "a,b", ""},
		{`"q"`, "two\nlines", "=A1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1,\"a,b\",\n\"\"\"q\"\"\",\"two\nlines\",=A1\n", buf.String())

	sheet, rows, cols, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, `"q"`, sheet["A2"])
	assert.Equal(t, "two\nlines", sheet["B2"])
}

func TestGrids(t *testing.T) {
	sheet := spreadsheet.Snapshot{"A1": "2", "B1": "=A1*3", "A2": "=B1/0", "B2": "=B2"}
	values := spreadsheet.EvaluateAll(sheet, 2, 3)

	assert.Equal(t, [][]string{
		{"2", "=A1*3", ""},
		{"=B1/0", "=B2", ""},
	}, GridFromSnapshot(sheet, 2, 3))

	assert.Equal(t, [][]string{
		{"2", "6", ""},
		{"+Inf", "#CYCLE", ""},
	}, ValuesGrid(values, 2, 3))
}

func TestXLSXRoundTrip(t *testing.T) {
	sheet := spreadsheet.Snapshot{
		"A1": "5",
		"B1": "=A1*2",
		"A2": "'007",
		"B2": "hello",
		"C3": "=C3",
	}
	values := spreadsheet.EvaluateAll(sheet, 3, 3)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sheet, values, 3, 3))

	t.Run("InputSheet", func(t *testing.T) {
		got, rows, cols, err := ReadXLSX(bytes.NewReader(buf.Bytes()), "")
		require.NoError(t, err)
		assert.Equal(t, sheet, got)
		assert.Equal(t, 3, rows)
		assert.Equal(t, 3, cols)
	})

	t.Run("ValuesSheet", func(t *testing.T) {
		f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{InputSheet, ValuesSheet}, f.GetSheetList())

		cases := map[string]string{
			"A1": "5",
			"B1": "10",
			"A2": "007",
			"B2": "hello",
			"C3": "#CYCLE",
			"C1": "",
		}
		for id, want := range cases {
			got, err := f.GetCellValue(ValuesSheet, id)
			require.NoError(t, err)
			assert.Equal(t, want, got, id)
		}
	})

	t.Run("MissingSheet", func(t *testing.T) {
		_, _, _, err := ReadXLSX(bytes.NewReader(buf.Bytes()), "Nope")
		assert.Error(t, err)
	})
}

func TestReadXLSXFormulas(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", 3))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", 4))
	// cached result first, as spreadsheet applications save it
	require.NoError(t, f.SetCellValue("Sheet1", "A3", 7))
	require.NoError(t, f.SetCellFormula("Sheet1", "A3", "SUM(A1:A2)"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	sheet, rows, cols, err := ReadXLSX(&buf, "")
	require.NoError(t, err)
	assert.Equal(t, "3", sheet["A1"])
	assert.Equal(t, "4", sheet["A2"])
	assert.Equal(t, "=SUM(A1:A2)", sheet["A3"])
	assert.Equal(t, 3, rows)
	assert.Equal(t, 1, cols)

	values := spreadsheet.EvaluateAll(sheet, rows, cols)
	assert.Equal(t, spreadsheet.NumberValue(7), values["A3"])
}
