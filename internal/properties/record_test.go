package properties

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/MacJediWizard/console/internal/integrations/notion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `{
  "object": "page",
  "id": "9b1c0a8e-0000-4000-8000-000000000001",
  "properties": {
    "Address": {"type": "rich_text", "rich_text": [{"plain_text": "100 Commerce Way"}]},
    "Building Types": {"type": "multi_select", "multi_select": [{"name": "Office"}, {"name": "Flex"}]},
    "City": {"type": "select", "select": {"name": "Austin"}},
    "State": {"type": "select", "select": {"name": "TX"}},
    "Zip Code": {"type": "rich_text", "rich_text": [{"plain_text": "78701"}]},
    "Tenancy": {"type": "select", "select": null},
    "Square Footage": {"type": "rich_text", "rich_text": [{"plain_text": "1,000-45,000"}]},
    "Number of Suites": {"type": "number", "number": 12},
    "Rate": {"type": "rich_text", "rich_text": [{"plain_text": "$24.50/SF/YR"}]},
    "Longitude": {"type": "number", "number": -97.7431},
    "Latitude": {"type": "number", "number": null},
    "Contact Email": {"type": "email", "email": "leasing@example.com"},
    "Contact Phone": {"type": "phone_number", "phone_number": null},
    "Available": {"type": "checkbox", "checkbox": true},
    "Listed": {"type": "date", "date": {"start": "2024-03-01"}}
  }
}`

func decodePage(t *testing.T) notion.Page {
	t.Helper()
	var page notion.Page
	require.NoError(t, json.Unmarshal([]byte(samplePage), &page))
	return page
}

func TestFromNotionPage(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CDT", -5*3600))

	rec := FromNotionPage(decodePage(t), now)

	assert.Equal(t, "9b1c0a8e-0000-4000-8000-000000000001", rec.NotionID)
	assert.Equal(t, "100 Commerce Way", rec.Address)
	assert.Equal(t, "Austin", rec.City)
	assert.Equal(t, "TX", rec.State)
	assert.Equal(t, "78701", rec.ZipCode)
	assert.Equal(t, []string{"Office", "Flex"}, rec.BuildingTypes)
	assert.Equal(t, "", rec.Tenancy)
	assert.Equal(t, "1,000-45,000", rec.SquareFootage)
	assert.Equal(t, intPtr(1000), rec.SquareFootageMin)
	assert.Equal(t, intPtr(45000), rec.SquareFootageMax)
	assert.Equal(t, 12, rec.NumberOfSuites)
	assert.Equal(t, "$24.50/SF/YR", rec.RateText)
	assert.Equal(t, floatPtr(24.5), rec.RatePerSqft)
	assert.Equal(t, floatPtr(-97.7431), rec.Longitude)
	assert.Nil(t, rec.Latitude)
	assert.Equal(t, "leasing@example.com", rec.ContactEmail)
	assert.Empty(t, rec.ContactPhone)
	assert.Empty(t, rec.ContactName)
	assert.Equal(t, SourceNotion, rec.Source)
	assert.Equal(t, now.UTC(), rec.UpdatedAt)
}

func TestFromNotionPageEmpty(t *testing.T) {
	rec := FromNotionPage(notion.Page{ID: "p1"}, time.Now())

	assert.Equal(t, "p1", rec.NotionID)
	assert.Equal(t, []string{}, rec.BuildingTypes)
	assert.Zero(t, rec.NumberOfSuites)
	assert.Nil(t, rec.SquareFootageMin)
	assert.Nil(t, rec.RatePerSqft)
}

func TestValue(t *testing.T) {
	page := decodePage(t)
	props := page.Properties

	checkbox := props["Available"]
	date := props["Listed"]

	assert.Equal(t, true, Value(&checkbox))
	assert.Equal(t, "2024-03-01", Value(&date))
	assert.Nil(t, Value(nil))
	assert.Nil(t, Value(&notion.PropertyValue{Type: "formula"}))
	assert.Equal(t, "", Value(&notion.PropertyValue{Type: "title"}))
	assert.Equal(t, []string{}, Value(&notion.PropertyValue{Type: "multi_select"}))
}
