package db

import (
	"context"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DwellStats summarises how long unknown people had loitered when their alert fired.
type DwellStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean_seconds"`
	StdDev float64 `json:"stddev_seconds"`
	Min    float64 `json:"min_seconds"`
	Median float64 `json:"median_seconds"`
	P90    float64 `json:"p90_seconds"`
	Max    float64 `json:"max_seconds"`
}

// LoiterDwellStats computes dwell statistics over loiter alerts fired at or after since.
func (db *DB) LoiterDwellStats(ctx context.Context, since time.Time) (DwellStats, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT fired_at_ms - since_ms
		FROM alerts
		WHERE kind = 'loiter' AND since_ms IS NOT NULL AND fired_at_ms >= ?`, toMillis(since))
	if err != nil {
		return DwellStats{}, err
	}
	defer rows.Close()

	var dwell []float64
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return DwellStats{}, err
		}
		dwell = append(dwell, float64(ms)/1000)
	}
	if err := rows.Err(); err != nil {
		return DwellStats{}, err
	}
	return summarize(dwell), nil
}

func summarize(values []float64) DwellStats {
	if len(values) == 0 {
		return DwellStats{}
	}
	sort.Float64s(values)

	s := DwellStats{
		Count:  len(values),
		Min:    values[0],
		Max:    values[len(values)-1],
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, values, nil),
	}
	if len(values) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	} else {
		s.Mean = values[0]
	}
	return s
}
