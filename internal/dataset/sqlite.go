package dataset

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"tzdiff/internal/cityindex"
	"tzdiff/internal/model"
)

const selectCities = `SELECT city, COALESCE(province, ''), iso2, timezone FROM cities ORDER BY rowid`

// LoadSQLite reads every row of the cities table in rowid order, which is
// taken as dataset order.
func LoadSQLite(ctx context.Context, path string) (*cityindex.Index, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("dataset: open sqlite: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, selectCities)
	if err != nil {
		return nil, fmt.Errorf("dataset: query cities: %w", err)
	}
	defer rows.Close()

	var records []model.LocationRecord
	for rows.Next() {
		var r model.LocationRecord
		if err := rows.Scan(&r.City, &r.Province, &r.ISO2, &r.Timezone); err != nil {
			return nil, fmt.Errorf("dataset: scan city: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read cities: %w", err)
	}

	return cityindex.New(records), nil
}
