package properties

// ToNotionProperties converts a record into the property payload used to
// create a page in the properties database. Empty optional values are
// omitted so Notion keeps its column defaults.
func ToNotionProperties(rec Record) map[string]any {
	props := map[string]any{
		colAddress:       richTextValue(rec.Address),
		colZipCode:       richTextValue(rec.ZipCode),
		colSquareFootage: richTextValue(rec.SquareFootage),
		colRate:          richTextValue(rec.RateText),
		colSuites:        map[string]any{"number": rec.NumberOfSuites},
	}

	buildingTypes := make([]map[string]string, 0, len(rec.BuildingTypes))
	for _, bt := range rec.BuildingTypes {
		buildingTypes = append(buildingTypes, map[string]string{"name": bt})
	}
	props[colBuildingTypes] = map[string]any{"multi_select": buildingTypes}

	setSelect(props, colCity, rec.City)
	setSelect(props, colState, rec.State)
	setSelect(props, colTenancy, rec.Tenancy)

	if rec.Longitude != nil {
		props[colLongitude] = map[string]any{"number": *rec.Longitude}
	}
	if rec.Latitude != nil {
		props[colLatitude] = map[string]any{"number": *rec.Latitude}
	}

	if rec.ContactName != "" {
		props[colContactName] = richTextValue(rec.ContactName)
	}
	if rec.ContactEmail != "" {
		props[colContactEmail] = map[string]any{"email": rec.ContactEmail}
	}
	if rec.ContactPhone != "" {
		props[colContactPhone] = map[string]any{"phone_number": rec.ContactPhone}
	}
	if rec.Description != "" {
		props[colDescription] = richTextValue(rec.Description)
	}

	return props
}

func richTextValue(s string) map[string]any {
	return map[string]any{
		"rich_text": []map[string]any{
			{"text": map[string]string{"content": s}},
		},
	}
}

func setSelect(props map[string]any, name, value string) {
	if value == "" {
		return
	}
	props[name] = map[string]any{"select": map[string]string{"name": value}}
}
