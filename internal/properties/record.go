package properties

import (
	"time"

	"github.com/MacJediWizard/console/internal/integrations/notion"
)

// Record sources stored in the source column.
const (
	SourceNotion = "Notion"
	SourceCSV    = "CSV Import"
)

// Record is a row of the cre_properties table.
type Record struct {
	// ID is the database row ID; empty until the record is stored.
	ID               string    `json:"id,omitempty"`
	NotionID         string    `json:"notion_id"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	State            string    `json:"state"`
	ZipCode          string    `json:"zip_code"`
	BuildingTypes    []string  `json:"building_types"`
	Tenancy          string    `json:"tenancy,omitempty"`
	SquareFootage    string    `json:"square_footage"`
	SquareFootageMin *int      `json:"square_footage_min"`
	SquareFootageMax *int      `json:"square_footage_max"`
	NumberOfSuites   int       `json:"number_of_suites"`
	RateText         string    `json:"rate_text"`
	RatePerSqft      *float64  `json:"rate_per_sqft"`
	Longitude        *float64  `json:"longitude"`
	Latitude         *float64  `json:"latitude"`
	ContactName      string    `json:"contact_name,omitempty"`
	ContactEmail     string    `json:"contact_email,omitempty"`
	ContactPhone     string    `json:"contact_phone,omitempty"`
	Description      string    `json:"description,omitempty"`
	Source           string    `json:"source"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Notion column names of the properties database.
const (
	colAddress       = "Address"
	colBuildingTypes = "Building Types"
	colCity          = "City"
	colState         = "State"
	colZipCode       = "Zip Code"
	colTenancy       = "Tenancy"
	colSquareFootage = "Square Footage"
	colSuites        = "Number of Suites"
	colRate          = "Rate"
	colLongitude     = "Longitude"
	colLatitude      = "Latitude"
	colContactName   = "Contact Name"
	colContactEmail  = "Contact Email"
	colContactPhone  = "Contact Phone"
	colDescription   = "Description"
)

// FromNotionPage converts a page of the properties database into a Record.
func FromNotionPage(page notion.Page, now time.Time) Record {
	props := page.Properties

	sqft := Text(props, colSquareFootage)
	rate := Text(props, colRate)
	sqftMin, sqftMax := ParseSquareFootage(sqft)

	suites := 0
	if n := Number(props, colSuites); n != nil {
		suites = int(*n)
	}

	buildingTypes := Strings(props, colBuildingTypes)
	if buildingTypes == nil {
		buildingTypes = []string{}
	}

	return Record{
		NotionID:         page.ID,
		Address:          Text(props, colAddress),
		City:             Text(props, colCity),
		State:            Text(props, colState),
		ZipCode:          Text(props, colZipCode),
		BuildingTypes:    buildingTypes,
		Tenancy:          Text(props, colTenancy),
		SquareFootage:    sqft,
		SquareFootageMin: sqftMin,
		SquareFootageMax: sqftMax,
		NumberOfSuites:   suites,
		RateText:         rate,
		RatePerSqft:      ParseRate(rate),
		Longitude:        Number(props, colLongitude),
		Latitude:         Number(props, colLatitude),
		ContactName:      Text(props, colContactName),
		ContactEmail:     Text(props, colContactEmail),
		ContactPhone:     Text(props, colContactPhone),
		Description:      Text(props, colDescription),
		Source:           SourceNotion,
		UpdatedAt:        now.UTC(),
	}
}
