// Package database provides the storage layer for skydash.
//
// It implements the Store interface using SQLite in WAL mode. Each
// collection run is stored as one profile snapshot plus per-skill,
// per-slayer, per-collection and per-mob child rows keyed by the same
// snapshot timestamp. The DBService struct is the primary entry point for
// all database operations.
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Mr-Dark-debug/skydash/internal/series"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrNotFound is returned when a requested snapshot does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnknownCategory is returned for a history or progress category the
// store does not track.
var ErrUnknownCategory = errors.New("unknown category")

// Store defines the interface for snapshot persistence.
type Store interface {
	// InsertSnapshot persists one collection run in a single transaction.
	InsertSnapshot(snap *Snapshot) error

	// LatestSnapshotTimestamp returns the newest profile snapshot time,
	// or nil when there are none.
	LatestSnapshotTimestamp() (*int64, error)
	// ProfileStats returns the headline stats of the snapshot at ts.
	ProfileStats(ts int64) (*ProfileStats, error)
	// History returns every series of category recorded at or after since.
	History(category string, since int64) (series.Collection, error)
	// Progress compares the newest snapshot with the last one before since.
	Progress(category string, since int64) ([]ProgressEntry, error)
	// BankTransactions returns transactions at or after since (unix
	// milliseconds, the unit the API records them in), newest first.
	BankTransactions(since int64) ([]BankTransaction, error)
	// Summary returns snapshot counts for status reporting.
	Summary() (*Summary, error)

	// Close gracefully shuts down the database connection.
	Close() error
}

// ============================================================
// Domain Models
// ============================================================

// Snapshot is everything one collection run records.
type Snapshot struct {
	ProfileID   string
	MemberUUID  string
	Timestamp   int64
	CuteName    string
	Purse       float64
	DeathCount  int64
	Kills       int64
	BankBalance float64

	Skills           []SkillEntry
	Slayers          []SlayerEntry
	Collections      []CollectionEntry
	Bestiary         []BestiaryEntry
	BankTransactions []BankTransaction
}

// SkillEntry is one skill's experience and derived level.
type SkillEntry struct {
	Name  string  `json:"name"`
	XP    float64 `json:"xp"`
	Level int     `json:"level"`
}

// SlayerEntry is one slayer boss's experience and kills per tier.
type SlayerEntry struct {
	Name      string   `json:"name"`
	XP        int64    `json:"xp"`
	TierKills [5]int64 `json:"tier_kills"`
}

// CollectionEntry is one collection's amount and derived tier.
type CollectionEntry struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
	Tier   int    `json:"tier"`
}

// BestiaryEntry is the kill count of one mob.
type BestiaryEntry struct {
	MobID string `json:"mob_id"`
	Kills int64  `json:"kills"`
}

// BankTransaction is one deposit or withdrawal on the profile bank.
type BankTransaction struct {
	Timestamp     int64   `json:"timestamp"`
	Action        string  `json:"action"`
	Amount        float64 `json:"amount"`
	InitiatorName string  `json:"initiator_name"`
}

// ProfileStats is the headline row of a profile snapshot.
type ProfileStats struct {
	Purse       float64 `json:"purse"`
	DeathCount  int64   `json:"death_count"`
	Kills       int64   `json:"kills"`
	BankBalance float64 `json:"bank_balance"`
}

// ProgressEntry is the gain of one item between two snapshots.
type ProgressEntry struct {
	Name     string `json:"name"`
	Progress int64  `json:"progress"`
	EndValue int64  `json:"end_value"`
}

// Summary holds aggregate counts across the database.
type Summary struct {
	Snapshots        int    `json:"snapshots"`
	FirstTimestamp   *int64 `json:"first_timestamp,omitempty"`
	LatestTimestamp  *int64 `json:"latest_timestamp,omitempty"`
	BankTransactions int    `json:"bank_transactions"`
}

// ============================================================
// DBService Implementation
// ============================================================

// DBService implements the Store interface using SQLite.
// It manages the connection pool and prepared statements, and serialises
// writers through a read-write mutex.
type DBService struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string

	stmtInsertProfile    *sql.Stmt
	stmtInsertSkill      *sql.Stmt
	stmtInsertSlayer     *sql.Stmt
	stmtInsertCollection *sql.Stmt
	stmtInsertBestiary   *sql.Stmt
	stmtInsertBankTx     *sql.Stmt
}

// NewDBService opens the database at path, applies the embedded schema and
// prepares the insert statements. Use ":memory:" for tests.
func NewDBService(path string) (*DBService, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON&_cache_size=-64000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	svc := &DBService{
		db:   db,
		path: path,
	}

	if err := svc.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	if err := svc.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing statements: %w", err)
	}

	return svc, nil
}

// Path returns the database location.
func (s *DBService) Path() string { return s.path }

func (s *DBService) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading embedded schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

func (s *DBService) prepareStatements() error {
	var err error

	s.stmtInsertProfile, err = s.db.Prepare(`
		INSERT OR IGNORE INTO profile_snapshots
			(profile_id, member_uuid, snapshot_timestamp, cute_name, purse, death_count, kills, bank_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertProfile: %w", err)
	}

	s.stmtInsertSkill, err = s.db.Prepare(`
		INSERT OR IGNORE INTO skill_snapshots
			(member_uuid, profile_id, snapshot_timestamp, skill_name, total_xp, level)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertSkill: %w", err)
	}

	s.stmtInsertSlayer, err = s.db.Prepare(`
		INSERT OR IGNORE INTO slayer_snapshots
			(member_uuid, profile_id, snapshot_timestamp, slayer_name, total_xp,
			 tier1_kills, tier2_kills, tier3_kills, tier4_kills, tier5_kills)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertSlayer: %w", err)
	}

	s.stmtInsertCollection, err = s.db.Prepare(`
		INSERT OR IGNORE INTO collection_snapshots
			(member_uuid, profile_id, snapshot_timestamp, collection_name, amount, tier)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertCollection: %w", err)
	}

	s.stmtInsertBestiary, err = s.db.Prepare(`
		INSERT OR IGNORE INTO bestiary_snapshots
			(member_uuid, profile_id, snapshot_timestamp, mob_id, kills)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertBestiary: %w", err)
	}

	s.stmtInsertBankTx, err = s.db.Prepare(`
		INSERT OR IGNORE INTO bank_transactions
			(profile_id, timestamp, action, amount, initiator_name)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertBankTx: %w", err)
	}

	return nil
}

// InsertSnapshot writes the profile row first so child rows satisfy their
// foreign key, then every child row, all inside one transaction.
func (s *DBService) InsertSnapshot(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	pid, uid, ts := snap.ProfileID, snap.MemberUUID, snap.Timestamp

	for _, bt := range snap.BankTransactions {
		if _, err := tx.Stmt(s.stmtInsertBankTx).Exec(
			pid, bt.Timestamp, bt.Action, bt.Amount, bt.InitiatorName,
		); err != nil {
			return fmt.Errorf("inserting bank transaction at %d: %w", bt.Timestamp, err)
		}
	}

	if _, err := tx.Stmt(s.stmtInsertProfile).Exec(
		pid, uid, ts, snap.CuteName, snap.Purse, snap.DeathCount, snap.Kills, snap.BankBalance,
	); err != nil {
		return fmt.Errorf("inserting profile snapshot %d: %w", ts, err)
	}

	stmt := tx.Stmt(s.stmtInsertSkill)
	for _, sk := range snap.Skills {
		if _, err := stmt.Exec(uid, pid, ts, sk.Name, sk.XP, sk.Level); err != nil {
			return fmt.Errorf("inserting skill %s: %w", sk.Name, err)
		}
	}

	stmt = tx.Stmt(s.stmtInsertSlayer)
	for _, sl := range snap.Slayers {
		k := sl.TierKills
		if _, err := stmt.Exec(uid, pid, ts, sl.Name, sl.XP, k[0], k[1], k[2], k[3], k[4]); err != nil {
			return fmt.Errorf("inserting slayer %s: %w", sl.Name, err)
		}
	}

	stmt = tx.Stmt(s.stmtInsertCollection)
	for _, c := range snap.Collections {
		if _, err := stmt.Exec(uid, pid, ts, c.Name, c.Amount, c.Tier); err != nil {
			return fmt.Errorf("inserting collection %s: %w", c.Name, err)
		}
	}

	stmt = tx.Stmt(s.stmtInsertBestiary)
	for _, b := range snap.Bestiary {
		if _, err := stmt.Exec(uid, pid, ts, b.MobID, b.Kills); err != nil {
			return fmt.Errorf("inserting bestiary entry %s: %w", b.MobID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot transaction: %w", err)
	}
	return nil
}

// LatestSnapshotTimestamp returns the newest profile snapshot time.
func (s *DBService) LatestSnapshotTimestamp() (*int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ts int64
	err := s.db.QueryRow(`
		SELECT snapshot_timestamp FROM profile_snapshots
		ORDER BY snapshot_timestamp DESC LIMIT 1
	`).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot timestamp: %w", err)
	}
	return &ts, nil
}

// ProfileStats returns the headline stats recorded at ts.
func (s *DBService) ProfileStats(ts int64) (*ProfileStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &ProfileStats{}
	err := s.db.QueryRow(`
		SELECT COALESCE(purse, 0), COALESCE(death_count, 0),
			COALESCE(kills, 0), COALESCE(bank_balance, 0)
		FROM profile_snapshots
		WHERE snapshot_timestamp = ?
		LIMIT 1
	`, ts).Scan(&st.Purse, &st.DeathCount, &st.Kills, &st.BankBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile stats at %d: %w", ts, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile stats at %d: %w", ts, err)
	}
	return st, nil
}

// BankTransactions returns bank transactions at or after since, newest first.
// Transaction timestamps are unix milliseconds.
func (s *DBService) BankTransactions(since int64) ([]BankTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT timestamp, COALESCE(action, ''), COALESCE(amount, 0), COALESCE(initiator_name, '')
		FROM bank_transactions
		WHERE timestamp >= ?
		ORDER BY timestamp DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("querying bank transactions: %w", err)
	}
	defer rows.Close()

	txs := []BankTransaction{}
	for rows.Next() {
		var bt BankTransaction
		if err := rows.Scan(&bt.Timestamp, &bt.Action, &bt.Amount, &bt.InitiatorName); err != nil {
			return nil, fmt.Errorf("scanning bank transaction: %w", err)
		}
		txs = append(txs, bt)
	}
	return txs, rows.Err()
}

// Summary returns snapshot counts and the covered time span.
func (s *DBService) Summary() (*Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := &Summary{}
	var first, last sql.NullInt64
	err := s.db.QueryRow(`
		SELECT COUNT(*), MIN(snapshot_timestamp), MAX(snapshot_timestamp)
		FROM profile_snapshots
	`).Scan(&sum.Snapshots, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("summarising snapshots: %w", err)
	}
	if first.Valid {
		sum.FirstTimestamp = &first.Int64
	}
	if last.Valid {
		sum.LatestTimestamp = &last.Int64
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM bank_transactions`).Scan(&sum.BankTransactions); err != nil {
		return nil, fmt.Errorf("counting bank transactions: %w", err)
	}
	return sum, nil
}

// Close closes all prepared statements and the underlying connection pool.
func (s *DBService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []*sql.Stmt{
		s.stmtInsertProfile, s.stmtInsertSkill, s.stmtInsertSlayer,
		s.stmtInsertCollection, s.stmtInsertBestiary, s.stmtInsertBankTx,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}

	return s.db.Close()
}
