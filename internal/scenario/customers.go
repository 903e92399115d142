package scenario

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kosarica/network-optimizer/internal/geo"
	"github.com/kosarica/network-optimizer/internal/optimizer"
)

// TotalProduct is the product key used for a single "demand" column.
const TotalProduct = "total"

var (
	ErrMissingColumn     = errors.New("missing required column")
	ErrUnsupportedFormat = errors.New("unsupported customer file format")
)

// RowError points at the offending row (1-based, header included) of a customer table.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ReadCustomers loads a customer table, choosing the parser by file extension.
func ReadCustomers(path string) ([]optimizer.CustomerInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read customers: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		return ParseCustomersCSV(data)
	case ".xlsx", ".xlsm":
		return ParseCustomersXLSX(data, "")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ParseCustomersCSV parses a delimited customer table. Encoding and
// delimiter are detected.
func ParseCustomersCSV(data []byte) ([]optimizer.CustomerInput, error) {
	text, err := DecodeText(data, "")
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = DetectDelimiter(text)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return customersFromRows(rows)
}

// ParseCustomersXLSX parses the named sheet, or the first sheet when sheet is empty.
func ParseCustomersXLSX(data []byte, sheet string) ([]optimizer.CustomerInput, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("xlsx has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return customersFromRows(rows)
}

type columnMap struct {
	id, lat, lon, factor int
	demand               map[int]string
}

func mapColumns(header []string) (columnMap, error) {
	m := columnMap{id: -1, lat: -1, lon: -1, factor: -1, demand: map[int]string{}}
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "id", "customer", "customer_id", "name":
			m.id = i
		case "latitude", "lat":
			m.lat = i
		case "longitude", "lon", "lng", "long":
			m.lon = i
		case "conversion_factor", "conversionfactor", "factor":
			m.factor = i
		case "demand":
			m.demand[i] = TotalProduct
		default:
			if product, ok := strings.CutPrefix(name, "demand_"); ok && product != "" {
				m.demand[i] = product
			}
		}
	}
	required := []struct {
		name string
		idx  int
	}{{"id", m.id}, {"latitude", m.lat}, {"longitude", m.lon}}
	for _, col := range required {
		if col.idx < 0 {
			return m, fmt.Errorf("%w: %s", ErrMissingColumn, col.name)
		}
	}
	if len(m.demand) == 0 {
		return m, fmt.Errorf("%w: demand or demand_<product>", ErrMissingColumn)
	}
	return m, nil
}

func customersFromRows(rows [][]string) ([]optimizer.CustomerInput, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrMissingColumn)
	}
	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	customers := make([]optimizer.CustomerInput, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}
		cell := func(idx int) string {
			if idx < 0 || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		c := optimizer.CustomerInput{ID: cell(cols.id), Demand: map[string]float64{}}
		if c.ID == "" {
			return nil, &RowError{Row: rowNum, Column: "id", Err: errors.New("empty id")}
		}

		lat, err := parseNumber(cell(cols.lat))
		if err != nil {
			return nil, &RowError{Row: rowNum, Column: "latitude", Err: err}
		}
		lon, err := parseNumber(cell(cols.lon))
		if err != nil {
			return nil, &RowError{Row: rowNum, Column: "longitude", Err: err}
		}
		loc := geo.Coordinate{Latitude: lat, Longitude: lon}
		if err := loc.Validate(); err != nil {
			return nil, &RowError{Row: rowNum, Column: "location", Err: err}
		}
		c.Location = &loc

		for idx, product := range cols.demand {
			v := cell(idx)
			if v == "" {
				continue
			}
			q, err := parseNumber(v)
			if err != nil {
				return nil, &RowError{Row: rowNum, Column: "demand_" + product, Err: err}
			}
			c.Demand[product] += q
		}

		if v := cell(cols.factor); v != "" {
			if c.ConversionFactor, err = parseNumber(v); err != nil {
				return nil, &RowError{Row: rowNum, Column: "conversion_factor", Err: err}
			}
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// parseNumber accepts a decimal point or, when no point is present, a decimal comma.
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
