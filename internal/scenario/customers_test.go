package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestParseCustomersCSV(t *testing.T) {
	data := []byte("id,latitude,longitude,demand_milk,demand_bread,conversion_factor\n" +
		"c1,45.815,15.982,10,5,\n" +
		"\n" +
		"c2,43.508,16.440,,7.5,2\n")

	customers, err := ParseCustomersCSV(data)
	require.NoError(t, err)
	require.Len(t, customers, 2)

	assert.Equal(t, "c1", customers[0].ID)
	assert.InDelta(t, 45.815, customers[0].Location.Latitude, 1e-9)
	assert.Equal(t, map[string]float64{"milk": 10, "bread": 5}, customers[0].Demand)
	assert.Zero(t, customers[0].ConversionFactor)

	assert.Equal(t, map[string]float64{"bread": 7.5}, customers[1].Demand)
	assert.Equal(t, 2.0, customers[1].ConversionFactor)
}

func TestParseCustomersCSVSemicolonWindows1250(t *testing.T) {
	utf8Text := "Name;Lat;Lng;Demand\nČakovec;46,384;16,433;12,5\nŠibenik;43,735;15,889;3\n"
	encoded, err := charmap.Windows1250.NewEncoder().Bytes([]byte(utf8Text))
	require.NoError(t, err)
	require.Equal(t, EncodingWindows1250, DetectEncoding(encoded))

	customers, err := ParseCustomersCSV(encoded)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "Čakovec", customers[0].ID)
	assert.Equal(t, "Šibenik", customers[1].ID)
	assert.InDelta(t, 46.384, customers[0].Location.Latitude, 1e-9)
	assert.Equal(t, map[string]float64{TotalProduct: 12.5}, customers[0].Demand)
}

func TestParseCustomersCSVWithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id\tlat\tlon\tdemand\nx\t1\t2\t3\n")...)

	customers, err := ParseCustomersCSV(data)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "x", customers[0].ID)
}

func TestParseCustomersErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		column string
		err    error
	}{
		{name: "no demand column", data: "id,lat,lon\nx,1,2\n", err: ErrMissingColumn},
		{name: "no longitude", data: "id,lat,demand\nx,1,2\n", err: ErrMissingColumn},
		{name: "bad latitude", data: "id,lat,lon,demand\nx,north,2,1\n", column: "latitude"},
		{name: "out of range", data: "id,lat,lon,demand\nx,91,2,1\n", column: "location"},
		{name: "empty id", data: "id,lat,lon,demand\n,1,2,1\n", column: "id"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCustomersCSV([]byte(tc.data))
			require.Error(t, err)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			var rowErr *RowError
			require.True(t, errors.As(err, &rowErr))
			assert.Equal(t, 2, rowErr.Row)
			assert.Equal(t, tc.column, rowErr.Column)
		})
	}
}

func TestParseCustomersXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"customer_id", "latitude", "longitude", "demand"},
		{"zg", 45.815, 15.982, 100},
		{"st", 43.508, 16.44, 50},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "customers.xlsx")
	require.NoError(t, f.SaveAs(path))

	customers, err := ReadCustomers(path)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "st", customers[1].ID)
	assert.InDelta(t, 16.44, customers[1].Location.Longitude, 1e-9)
	assert.Equal(t, 50.0, customers[1].Demand[TotalProduct])
}

func TestReadCustomersUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))

	_, err := ReadCustomers(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', DetectDelimiter("a;b;c\n1;2,5;3\n"))
	assert.Equal(t, '\t', DetectDelimiter("a\tb\n1\t2\n"))
	assert.Equal(t, ',', DetectDelimiter("a,b\n1,2\n"))
	assert.Equal(t, ',', DetectDelimiter(""))
}
