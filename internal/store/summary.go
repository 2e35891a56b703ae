package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/ambulanta/internal/model"
)

// StatusCounts tallies the items of one kind by derived status.
type StatusCounts struct {
	Total       int            `json:"total"`
	Expiry      map[string]int `json:"expiry"`
	Procurement map[string]int `json:"procurement"`
}

// Summary is the state of the status engine.
type Summary struct {
	LastRecompute *time.Time                  `json:"last_recompute"`
	Items         map[model.Kind]StatusCounts `json:"items"`
}

// GetSummary counts items per stored status and reports when the last full
// recompute finished.
func GetSummary(ctx context.Context, db *sqlx.DB) (*Summary, error) {
	s := &Summary{Items: make(map[model.Kind]StatusCounts)}

	last, err := GetSetting(ctx, db, SettingLastRecompute)
	if err != nil {
		return nil, err
	}
	if last != "" {
		at, err := time.Parse(time.RFC3339, last)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", SettingLastRecompute, err)
		}
		s.LastRecompute = &at
	}

	for _, t := range itemTables {
		var rows []struct {
			Expiry      string `db:"expiry_status"`
			Procurement string `db:"procurement_status"`
			N           int    `db:"n"`
		}
		err := db.SelectContext(ctx, &rows,
			`SELECT expiry_status, procurement_status, COUNT(*) AS n
			 FROM `+t.items+` GROUP BY expiry_status, procurement_status`)
		if err != nil {
			return nil, fmt.Errorf("counting %s statuses: %w", t.kind, err)
		}

		c := StatusCounts{Expiry: map[string]int{}, Procurement: map[string]int{}}
		for _, r := range rows {
			c.Total += r.N
			c.Expiry[r.Expiry] += r.N
			c.Procurement[r.Procurement] += r.N
		}
		s.Items[t.kind] = c
	}
	return s, nil
}
