package repository

import "context"

// InspectionStatistics holds the aggregate counts shown on the dashboard.
type InspectionStatistics struct {
	Total        int64
	ByStatus     map[string]int64
	TotalDefects int64
	TotalPhotos  int64
}

// GetInspectionStatistics computes totals across all inspections.
func (q *Queries) GetInspectionStatistics(ctx context.Context) (InspectionStatistics, error) {
	stats := InspectionStatistics{ByStatus: make(map[string]int64)}

	rows, err := q.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM inspections GROUP BY status`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM defect_records`).Scan(&stats.TotalDefects); err != nil {
		return stats, err
	}
	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM photos`).Scan(&stats.TotalPhotos); err != nil {
		return stats, err
	}

	return stats, nil
}
