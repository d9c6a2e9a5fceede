// Package propimport imports commercial property listings from CSV exports.
package propimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MacJediWizard/console/internal/properties"
)

// Record fields a CSV column can map to.
const (
	FieldAddress       = "address"
	FieldCity          = "city"
	FieldState         = "state"
	FieldZipCode       = "zip_code"
	FieldBuildingTypes = "building_types"
	FieldTenancy       = "tenancy"
	FieldSquareFootage = "square_footage"
	FieldSuites        = "number_of_suites"
	FieldRate          = "rate_text"
	FieldLatitude      = "latitude"
	FieldLongitude     = "longitude"
	FieldContactName   = "contact_name"
	FieldContactEmail  = "contact_email"
	FieldContactPhone  = "contact_phone"
	FieldDescription   = "description"
)

// headerAliases lists the accepted headers per field in order of preference.
var headerAliases = []struct {
	field   string
	aliases []string
}{
	{FieldAddress, []string{"address", "street_address", "street", "property_address", "addr"}},
	{FieldCity, []string{"city", "municipality", "town"}},
	{FieldState, []string{"state", "province", "st"}},
	{FieldZipCode, []string{"zip", "zipcode", "zip_code", "postal_code", "postal"}},
	{FieldBuildingTypes, []string{"building_type", "building_types", "type", "property_type", "asset_type"}},
	{FieldTenancy, []string{"tenancy", "tenant_type", "occupancy_type"}},
	{FieldSquareFootage, []string{"square_footage", "sq_ft", "sqft", "size", "total_sq_ft", "rentable_sf"}},
	{FieldSuites, []string{"suites", "number_of_suites", "units", "num_suites"}},
	{FieldRate, []string{"rate", "rent", "rate_per_sf", "price_per_sf", "asking_rate"}},
	{FieldLatitude, []string{"latitude", "lat", "y_coord"}},
	{FieldLongitude, []string{"longitude", "lng", "lon", "x_coord"}},
	{FieldContactName, []string{"contact_name", "contact", "agent_name", "broker_name"}},
	{FieldContactEmail, []string{"contact_email", "email", "agent_email", "broker_email"}},
	{FieldContactPhone, []string{"contact_phone", "phone", "agent_phone", "broker_phone"}},
	{FieldDescription, []string{"description", "notes", "comments", "details"}},
}

var requiredFields = []string{FieldAddress, FieldCity, FieldState, FieldRate}

// DefaultBuildingType is stored when a row names no building type.
const DefaultBuildingType = "Unknown"

// ColumnMapping maps record fields to CSV column indices.
type ColumnMapping map[string]int

// normalizeHeader lowercases a header and turns spaces and hyphens into
// underscores, so "Zip Code" and "zip-code" both match zip_code.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// MapHeaders matches a header row against the known aliases. Each field
// takes the first alias present; unmatched headers are ignored.
func MapHeaders(headers []string) ColumnMapping {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		n := normalizeHeader(h)
		if _, seen := index[n]; !seen {
			index[n] = i
		}
	}

	mapping := make(ColumnMapping)
	for _, fa := range headerAliases {
		for _, alias := range fa.aliases {
			if col, ok := index[alias]; ok {
				mapping[fa.field] = col
				break
			}
		}
	}
	return mapping
}

var (
	buildingTypeSep = regexp.MustCompile(`[,;/|]`)
	nonDigit        = regexp.MustCompile(`\D`)
)

// CleanBuildingTypes splits a building type cell on , ; / or | and title
// cases each entry, dropping blanks and duplicates.
func CleanBuildingTypes(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range buildingTypeSep.Split(s, -1) {
		bt := titleCase(strings.TrimSpace(part))
		if bt == "" || seen[bt] {
			continue
		}
		seen[bt] = true
		out = append(out, bt)
	}
	return out
}

func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range strings.ToLower(s) {
		isLetter := ('a' <= r && r <= 'z') || r > 127
		if isLetter && !prevLetter {
			b.WriteString(strings.ToUpper(string(r)))
		} else {
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}

// CleanPhoneNumber formats ten digit US numbers as (xxx) xxx-xxxx, dropping a
// leading country code 1. Anything else is returned unchanged.
func CleanPhoneNumber(phone string) string {
	digits := nonDigit.ReplaceAllString(phone, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	} else if len(digits) != 10 {
		return phone
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}

// ValidAddress reports whether an address has at least five characters.
func ValidAddress(address string) bool {
	return len(strings.TrimSpace(address)) >= 5
}

// ValidCoordinates reports whether a coordinate pair is in range. A missing
// half means the pair is not checked.
func ValidCoordinates(lat, lng *float64) bool {
	if lat == nil || lng == nil {
		return true
	}
	return *lat >= -90 && *lat <= 90 && *lng >= -180 && *lng <= 180
}

// Entry is one parsed data row.
type Entry struct {
	RowNumber int               `json:"row_number"`
	Record    properties.Record `json:"record"`
	IsValid   bool              `json:"is_valid"`
	Errors    []string          `json:"errors,omitempty"`
}

// ParseOptions configures CSV parsing.
type ParseOptions struct {
	Delimiter rune
	// Now stamps updated_at on every record.
	Now func() time.Time
}

// DefaultParseOptions returns comma separated parsing stamped with the wall clock.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Delimiter: ',', Now: time.Now}
}

// Parser turns a CSV export into property records.
type Parser struct {
	options ParseOptions
}

// NewParser creates a parser with the given options.
func NewParser(options ParseOptions) *Parser {
	if options.Delimiter == 0 {
		options.Delimiter = ','
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	return &Parser{options: options}
}

// Parse reads a CSV file with a header row. It returns the detected column
// mapping and one validated entry per data row.
func (p *Parser) Parse(r io.Reader) (ColumnMapping, []Entry, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = p.options.Delimiter
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("CSV file is empty")
	}
	if len(rows) == 1 {
		return nil, nil, errors.New("CSV file has no data rows")
	}

	mapping := MapHeaders(rows[0])
	if _, ok := mapping[FieldAddress]; !ok {
		return mapping, nil, errors.New("CSV file has no address column")
	}

	now := p.options.Now().UTC()
	entries := make([]Entry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		// Data rows are numbered from 1, after the header.
		entries = append(entries, parseRow(row, i+1, mapping, now))
	}
	return mapping, entries, nil
}

func parseRow(row []string, rowNumber int, mapping ColumnMapping, now time.Time) Entry {
	cell := func(field string) string {
		col, ok := mapping[field]
		if !ok || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	rec := properties.Record{
		Address:       cell(FieldAddress),
		City:          cell(FieldCity),
		State:         cell(FieldState),
		ZipCode:       cell(FieldZipCode),
		Tenancy:       cell(FieldTenancy),
		SquareFootage: cell(FieldSquareFootage),
		RateText:      cell(FieldRate),
		ContactName:   cell(FieldContactName),
		ContactEmail:  cell(FieldContactEmail),
		Description:   cell(FieldDescription),
		Latitude:      parseFloat(cell(FieldLatitude)),
		Longitude:     parseFloat(cell(FieldLongitude)),
		Source:        properties.SourceCSV,
		UpdatedAt:     now,
	}

	rec.BuildingTypes = CleanBuildingTypes(cell(FieldBuildingTypes))
	if len(rec.BuildingTypes) == 0 {
		rec.BuildingTypes = []string{DefaultBuildingType}
	}
	if phone := cell(FieldContactPhone); phone != "" {
		rec.ContactPhone = CleanPhoneNumber(phone)
	}
	if suites := parseFloat(cell(FieldSuites)); suites != nil {
		rec.NumberOfSuites = int(*suites)
	}
	rec.SquareFootageMin, rec.SquareFootageMax = properties.ParseSquareFootage(rec.SquareFootage)
	rec.RatePerSqft = properties.ParseRate(rec.RateText)

	errs := Validate(rec)
	return Entry{RowNumber: rowNumber, Record: rec, IsValid: len(errs) == 0, Errors: errs}
}

// parseFloat returns nil for blank or unparseable cells.
func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

// Validate returns the problems that keep a record from being imported.
func Validate(rec properties.Record) []string {
	var errs []string
	values := map[string]string{
		FieldAddress: rec.Address,
		FieldCity:    rec.City,
		FieldState:   rec.State,
		FieldRate:    rec.RateText,
	}
	for _, field := range requiredFields {
		if values[field] == "" {
			errs = append(errs, "missing required field: "+field)
		}
	}
	if rec.Address != "" && !ValidAddress(rec.Address) {
		errs = append(errs, "invalid address format")
	}
	if !ValidCoordinates(rec.Latitude, rec.Longitude) {
		errs = append(errs, "invalid coordinates")
	}
	return errs
}
