package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/MacJediWizard/console/internal/properties"
	"github.com/jackc/pgx/v5"
)

// ErrPropertyNotFound is returned when no unlinked property has the given ID.
var ErrPropertyNotFound = errors.New("property not found")

// PropertiesTable is the table holding property listings.
const PropertiesTable = "cre_properties"

// PropertyColumns are the cre_properties columns exposed to the console.
var PropertyColumns = []string{
	"id", "notion_id", "address", "city", "state", "zip_code",
	"building_types", "tenancy", "square_footage", "square_footage_min",
	"square_footage_max", "number_of_suites", "rate_text", "rate_per_sqft",
	"longitude", "latitude", "contact_name", "contact_email", "contact_phone",
	"description", "source", "created_at", "updated_at",
}

// UpsertProperty inserts or updates a property keyed by notion_id. It reports
// whether a new row was created.
func (db *DB) UpsertProperty(ctx context.Context, rec properties.Record) (bool, error) {
	if rec.NotionID == "" {
		return false, fmt.Errorf("upsert property: notion_id is required")
	}

	var created bool
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO cre_properties (
			notion_id, address, city, state, zip_code, building_types, tenancy,
			square_footage, square_footage_min, square_footage_max, number_of_suites,
			rate_text, rate_per_sqft, longitude, latitude,
			contact_name, contact_email, contact_phone, description,
			source, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NULLIF($7, ''),
			$8, $9, $10, $11,
			$12, $13, $14, $15,
			NULLIF($16, ''), NULLIF($17, ''), NULLIF($18, ''), NULLIF($19, ''),
			$20, $21
		)
		ON CONFLICT (notion_id) DO UPDATE SET
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip_code = EXCLUDED.zip_code,
			building_types = EXCLUDED.building_types,
			tenancy = EXCLUDED.tenancy,
			square_footage = EXCLUDED.square_footage,
			square_footage_min = EXCLUDED.square_footage_min,
			square_footage_max = EXCLUDED.square_footage_max,
			number_of_suites = EXCLUDED.number_of_suites,
			rate_text = EXCLUDED.rate_text,
			rate_per_sqft = EXCLUDED.rate_per_sqft,
			longitude = EXCLUDED.longitude,
			latitude = EXCLUDED.latitude,
			contact_name = COALESCE(EXCLUDED.contact_name, cre_properties.contact_name),
			contact_email = COALESCE(EXCLUDED.contact_email, cre_properties.contact_email),
			contact_phone = COALESCE(EXCLUDED.contact_phone, cre_properties.contact_phone),
			description = COALESCE(EXCLUDED.description, cre_properties.description),
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0)
	`,
		rec.NotionID, rec.Address, rec.City, rec.State, rec.ZipCode, rec.BuildingTypes, rec.Tenancy,
		rec.SquareFootage, rec.SquareFootageMin, rec.SquareFootageMax, rec.NumberOfSuites,
		rec.RateText, rec.RatePerSqft, rec.Longitude, rec.Latitude,
		rec.ContactName, rec.ContactEmail, rec.ContactPhone, rec.Description,
		rec.Source, rec.UpdatedAt,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert property %s: %w", rec.NotionID, err)
	}

	return created, nil
}

// PropertyCounts holds totals used by sync status.
type PropertyCounts struct {
	Total  int64
	Synced int64
}

// CountProperties returns the number of properties and how many carry a notion_id.
func (db *DB) CountProperties(ctx context.Context) (PropertyCounts, error) {
	var c PropertyCounts
	err := db.Pool.QueryRow(ctx,
		"SELECT COUNT(*), COUNT(notion_id) FROM cre_properties",
	).Scan(&c.Total, &c.Synced)
	if err != nil {
		return PropertyCounts{}, fmt.Errorf("count properties: %w", err)
	}
	return c, nil
}

// UnsyncedProperties returns the properties that have no Notion page yet,
// oldest first.
func (db *DB) UnsyncedProperties(ctx context.Context) ([]properties.Record, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id::text, address, city, state, zip_code, building_types,
		       COALESCE(tenancy, ''), square_footage, number_of_suites, rate_text,
		       rate_per_sqft::float8, longitude::float8, latitude::float8,
		       COALESCE(contact_name, ''), COALESCE(contact_email, ''),
		       COALESCE(contact_phone, ''), COALESCE(description, ''),
		       source, updated_at
		FROM cre_properties
		WHERE notion_id IS NULL
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list unsynced properties: %w", err)
	}
	defer rows.Close()

	var recs []properties.Record
	for rows.Next() {
		var r properties.Record
		if err := rows.Scan(
			&r.ID, &r.Address, &r.City, &r.State, &r.ZipCode, &r.BuildingTypes,
			&r.Tenancy, &r.SquareFootage, &r.NumberOfSuites, &r.RateText,
			&r.RatePerSqft, &r.Longitude, &r.Latitude,
			&r.ContactName, &r.ContactEmail,
			&r.ContactPhone, &r.Description,
			&r.Source, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan unsynced property: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unsynced properties: %w", err)
	}

	return recs, nil
}

// SetNotionID links a property to the Notion page created for it. Only
// properties without a notion_id are updated.
func (db *DB) SetNotionID(ctx context.Context, id, notionID string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE cre_properties
		SET notion_id = $2, updated_at = NOW()
		WHERE id = $1::uuid AND notion_id IS NULL
	`, id, notionID)
	if err != nil {
		return fmt.Errorf("set notion_id for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set notion_id for %s: %w", id, ErrPropertyNotFound)
	}
	return nil
}

// ImportCounts reports how many imported rows were created or updated.
type ImportCounts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// importPropertySQL updates every row with the same address and city
// (case-insensitive) and inserts the record only when none matched.
const importPropertySQL = `
	WITH updated AS (
		UPDATE cre_properties SET
			state = $3::text,
			zip_code = $4::text,
			building_types = $5::text[],
			tenancy = COALESCE(NULLIF($6::text, ''), tenancy),
			square_footage = $7::text,
			square_footage_min = $8::integer,
			square_footage_max = $9::integer,
			number_of_suites = $10::integer,
			rate_text = $11::text,
			rate_per_sqft = $12::numeric,
			longitude = COALESCE($13::numeric, longitude),
			latitude = COALESCE($14::numeric, latitude),
			contact_name = COALESCE(NULLIF($15::text, ''), contact_name),
			contact_email = COALESCE(NULLIF($16::text, ''), contact_email),
			contact_phone = COALESCE(NULLIF($17::text, ''), contact_phone),
			description = COALESCE(NULLIF($18::text, ''), description),
			updated_at = $20::timestamptz
		WHERE lower(address) = lower($1::text) AND lower(city) = lower($2::text)
		RETURNING id
	)
	INSERT INTO cre_properties (
		address, city, state, zip_code, building_types, tenancy,
		square_footage, square_footage_min, square_footage_max, number_of_suites,
		rate_text, rate_per_sqft, longitude, latitude,
		contact_name, contact_email, contact_phone, description,
		source, updated_at
	)
	SELECT
		$1::text, $2::text, $3::text, $4::text, $5::text[], NULLIF($6::text, ''),
		$7::text, $8::integer, $9::integer, $10::integer,
		$11::text, $12::numeric, $13::numeric, $14::numeric,
		NULLIF($15::text, ''), NULLIF($16::text, ''), NULLIF($17::text, ''), NULLIF($18::text, ''),
		$19::text, $20::timestamptz
	WHERE NOT EXISTS (SELECT 1 FROM updated)
`

// ImportProperties stores records that have no Notion page, such as rows of
// a CSV export, in one transaction. Either every record is stored or none is.
func (db *DB) ImportProperties(ctx context.Context, recs []properties.Record) (ImportCounts, error) {
	var counts ImportCounts
	if len(recs) == 0 {
		return counts, nil
	}

	err := db.ExecTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range recs {
			batch.Queue(importPropertySQL,
				rec.Address, rec.City, rec.State, rec.ZipCode, rec.BuildingTypes, rec.Tenancy,
				rec.SquareFootage, rec.SquareFootageMin, rec.SquareFootageMax, rec.NumberOfSuites,
				rec.RateText, rec.RatePerSqft, rec.Longitude, rec.Latitude,
				rec.ContactName, rec.ContactEmail, rec.ContactPhone, rec.Description,
				rec.Source, rec.UpdatedAt,
			)
		}

		results := tx.SendBatch(ctx, batch)
		var c ImportCounts
		for _, rec := range recs {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return fmt.Errorf("import property %q: %w", rec.Address, err)
			}
			if tag.RowsAffected() == 1 {
				c.Created++
			} else {
				c.Updated++
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("import properties: %w", err)
		}
		counts = c
		return nil
	})
	if err != nil {
		return ImportCounts{}, err
	}

	return counts, nil
}
