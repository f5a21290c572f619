package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/Mr-Dark-debug/skydash/internal/series"
)

// Categories understood by History and Progress.
const (
	CategorySkills       = "skills"
	CategorySlayers      = "slayers"
	CategoryCollections  = "collections"
	CategoryBestiary     = "bestiary"
	CategoryProfileStats = "profile_stats"
)

// metricTable names the key and value columns of a per-item snapshot table.
type metricTable struct {
	table  string
	keyCol string
	valCol string
}

var metricTables = map[string]metricTable{
	CategorySkills:      {"skill_snapshots", "skill_name", "total_xp"},
	CategorySlayers:     {"slayer_snapshots", "slayer_name", "total_xp"},
	CategoryCollections: {"collection_snapshots", "collection_name", "amount"},
	CategoryBestiary:    {"bestiary_snapshots", "mob_id", "kills"},
}

// HistoryCategories lists every category History accepts.
func HistoryCategories() []string {
	return []string{CategorySkills, CategoryProfileStats, CategoryCollections, CategoryBestiary, CategorySlayers}
}

// ProgressCategories lists every category Progress accepts.
func ProgressCategories() []string {
	return []string{CategoryCollections, CategoryBestiary, CategorySkills, CategorySlayers}
}

// ============================================================
// History
// ============================================================

// History returns one series per item of category, with points ascending by
// snapshot time. Series appear in the order their first point was recorded.
func (s *DBService) History(category string, since int64) (series.Collection, error) {
	if category == CategoryProfileStats {
		return s.profileHistory(since)
	}
	mt, ok := metricTables[category]
	if !ok {
		return nil, fmt.Errorf("history %q: %w", category, ErrUnknownCategory)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT %s, COALESCE(%s, 0), snapshot_timestamp
		FROM %s
		WHERE snapshot_timestamp >= ?
		ORDER BY snapshot_timestamp ASC, snapshot_id ASC
	`, mt.keyCol, mt.valCol, mt.table), since)
	if err != nil {
		return nil, fmt.Errorf("querying %s history: %w", category, err)
	}
	defer rows.Close()

	out := series.Collection{}
	for rows.Next() {
		var (
			key string
			p   series.Point
		)
		if err := rows.Scan(&key, &p.Value, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning %s history row: %w", category, err)
		}
		out.Append(key, p)
	}
	return out, rows.Err()
}

// profileHistory always returns the total_money, kills and deaths series,
// even when they have no points.
func (s *DBService) profileHistory(since int64) (series.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT COALESCE(purse, 0) + COALESCE(bank_balance, 0),
			COALESCE(kills, 0), COALESCE(death_count, 0), snapshot_timestamp
		FROM profile_snapshots
		WHERE snapshot_timestamp >= ?
		ORDER BY snapshot_timestamp ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("querying profile history: %w", err)
	}
	defer rows.Close()

	money := series.Series{Name: "total_money", Points: []series.Point{}}
	kills := series.Series{Name: "kills", Points: []series.Point{}}
	deaths := series.Series{Name: "deaths", Points: []series.Point{}}
	for rows.Next() {
		var (
			total, k, d float64
			ts          int64
		)
		if err := rows.Scan(&total, &k, &d, &ts); err != nil {
			return nil, fmt.Errorf("scanning profile history row: %w", err)
		}
		money.Points = append(money.Points, series.Point{Timestamp: ts, Value: total})
		kills.Points = append(kills.Points, series.Point{Timestamp: ts, Value: k})
		deaths.Points = append(deaths.Points, series.Point{Timestamp: ts, Value: d})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading profile history: %w", err)
	}
	return series.Collection{money, kills, deaths}, nil
}

// ============================================================
// Progress
// ============================================================

// Progress compares the newest snapshot of category with the newest one taken
// strictly before since. Items absent from the older snapshot start at 0.
// Only gains are returned, largest first. When either snapshot is missing,
// or both are the same, the result is empty.
func (s *DBService) Progress(category string, since int64) ([]ProgressEntry, error) {
	mt, ok := metricTables[category]
	if !ok {
		return nil, fmt.Errorf("progress %q: %w", category, ErrUnknownCategory)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var endTS, startTS sql.NullInt64
	if err := s.db.QueryRow(fmt.Sprintf(
		`SELECT MAX(snapshot_timestamp) FROM %s`, mt.table,
	)).Scan(&endTS); err != nil {
		return nil, fmt.Errorf("querying latest %s snapshot: %w", category, err)
	}
	if err := s.db.QueryRow(fmt.Sprintf(
		`SELECT MAX(snapshot_timestamp) FROM %s WHERE snapshot_timestamp < ?`, mt.table,
	), since).Scan(&startTS); err != nil {
		return nil, fmt.Errorf("querying baseline %s snapshot: %w", category, err)
	}

	entries := []ProgressEntry{}
	if !endTS.Valid || !startTS.Valid || startTS.Int64 == endTS.Int64 {
		return entries, nil
	}

	start, _, err := s.valuesAt(mt, startTS.Int64)
	if err != nil {
		return nil, err
	}
	end, order, err := s.valuesAt(mt, endTS.Int64)
	if err != nil {
		return nil, err
	}

	for _, name := range order {
		progress := end[name] - start[name]
		if progress > 0 {
			entries = append(entries, ProgressEntry{Name: name, Progress: progress, EndValue: end[name]})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Progress != entries[j].Progress {
			return entries[i].Progress > entries[j].Progress
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// valuesAt returns the item values recorded at ts, truncated to integers,
// and the item names in row order.
func (s *DBService) valuesAt(mt metricTable, ts int64) (map[string]int64, []string, error) {
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT %s, COALESCE(%s, 0) FROM %s
		WHERE snapshot_timestamp = ?
		ORDER BY snapshot_id ASC
	`, mt.keyCol, mt.valCol, mt.table), ts)
	if err != nil {
		return nil, nil, fmt.Errorf("querying %s at %d: %w", mt.table, ts, err)
	}
	defer rows.Close()

	values := make(map[string]int64)
	var order []string
	for rows.Next() {
		var (
			name string
			v    float64
		)
		if err := rows.Scan(&name, &v); err != nil {
			return nil, nil, fmt.Errorf("scanning %s row: %w", mt.table, err)
		}
		if _, seen := values[name]; !seen {
			order = append(order, name)
		}
		values[name] = int64(v)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading %s rows: %w", mt.table, err)
	}
	return values, order, nil
}

// IsUnknownCategory reports whether err came from an unsupported category.
func IsUnknownCategory(err error) bool {
	return errors.Is(err, ErrUnknownCategory)
}
