// Package ledger records each simulated day to SQLite for later analysis.
// It only appends; nothing is ever read back into a running world.
package ledger

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/engine"
)

// DB wraps a SQLite connection holding one or more runs.
type DB struct {
	conn *sqlx.DB
}

// Run is one simulation session.
type Run struct {
	ID        string `db:"id" json:"id"`
	Seed      int64  `db:"seed" json:"seed"`
	StartedAt string `db:"started_at" json:"started_at"`
}

// MarketRow is one good's closing state on one day.
type MarketRow struct {
	Day      uint64  `db:"day" json:"day"`
	Good     string  `db:"good" json:"good"`
	Price    int     `db:"price" json:"price"`
	PriceF   float64 `db:"price_f" json:"price_f"`
	Velocity float64 `db:"velocity" json:"velocity"`
	Demand   int     `db:"demand" json:"demand"`
	Supply   int     `db:"supply" json:"supply"`
}

// DayRow is the economy-wide summary of one day.
type DayRow struct {
	Day             uint64 `db:"day" json:"day"`
	Population      int    `db:"population" json:"population"`
	ConsumerMoney   int    `db:"consumer_money" json:"consumer_money"`
	ProducerMoney   int    `db:"producer_money" json:"producer_money"`
	Births          int    `db:"births" json:"births"`
	Deaths          int    `db:"deaths" json:"deaths"`
	Bankruptcies    int    `db:"bankruptcies" json:"bankruptcies"`
	Expansions      int    `db:"expansions" json:"expansions"`
	LostInheritance int    `db:"lost_inheritance" json:"lost_inheritance"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS days (
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		population INTEGER NOT NULL,
		consumer_money INTEGER NOT NULL,
		producer_money INTEGER NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		bankruptcies INTEGER NOT NULL,
		expansions INTEGER NOT NULL,
		lost_inheritance INTEGER NOT NULL,
		PRIMARY KEY (run_id, day)
	);

	CREATE TABLE IF NOT EXISTS markets (
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		good TEXT NOT NULL,
		price INTEGER NOT NULL,
		price_f REAL NOT NULL,
		velocity REAL NOT NULL,
		demand INTEGER NOT NULL,
		supply INTEGER NOT NULL,
		PRIMARY KEY (run_id, day, good)
	);

	CREATE TABLE IF NOT EXISTS factories (
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		product TEXT NOT NULL,
		count INTEGER NOT NULL,
		inventory INTEGER NOT NULL,
		PRIMARY KEY (run_id, day, product)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun registers a new run and returns its id.
func (db *DB) StartRun(seed int64) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, started_at) VALUES (?, ?, ?)",
		id, seed, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	slog.Info("ledger run started", "run", id, "seed", seed)
	return id, nil
}

// RecordDay writes one day's snapshot for runID in a single transaction.
func (db *DB) RecordDay(runID string, snap engine.Snapshot) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO days
		(run_id, day, population, consumer_money, producer_money,
		 births, deaths, bankruptcies, expansions, lost_inheritance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, snap.Day, snap.Population, snap.ConsumerMoney, snap.ProducerMoney,
		snap.Stats.Births, snap.Stats.Deaths, snap.Stats.Bankruptcies,
		snap.Stats.Expansions, snap.Stats.LostInheritance,
	)
	if err != nil {
		return fmt.Errorf("insert day %d: %w", snap.Day, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO markets
		(run_id, day, good, price, price_f, velocity, demand, supply)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range snap.Markets {
		_, err := stmt.Exec(runID, snap.Day, m.Good.String(), m.Price,
			float64(m.PriceF), float64(m.Velocity), m.Demand, m.Supply)
		if err != nil {
			return fmt.Errorf("insert market %s day %d: %w", m.Good, snap.Day, err)
		}
	}

	for _, p := range economy.Products {
		name := p.String()
		_, err := tx.Exec(
			"INSERT INTO factories (run_id, day, product, count, inventory) VALUES (?, ?, ?, ?, ?)",
			runID, snap.Day, name, snap.Factories[name], snap.Inventory[name],
		)
		if err != nil {
			return fmt.Errorf("insert factories %s day %d: %w", name, snap.Day, err)
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in ledger metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// Runs returns every recorded run, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, seed, started_at FROM runs ORDER BY started_at DESC, id")
	return runs, err
}

// MarketHistory returns the last limit days of g for runID, oldest first.
func (db *DB) MarketHistory(runID string, g economy.Good, limit int) ([]MarketRow, error) {
	var rows []MarketRow
	err := db.conn.Select(&rows, `
		SELECT day, good, price, price_f, velocity, demand, supply FROM (
			SELECT * FROM markets WHERE run_id = ? AND good = ?
			ORDER BY day DESC LIMIT ?
		) ORDER BY day ASC`,
		runID, g.String(), limit,
	)
	return rows, err
}

// DayHistory returns the last limit day summaries for runID, oldest first.
func (db *DB) DayHistory(runID string, limit int) ([]DayRow, error) {
	var rows []DayRow
	err := db.conn.Select(&rows, `
		SELECT day, population, consumer_money, producer_money, births, deaths,
			bankruptcies, expansions, lost_inheritance FROM (
			SELECT * FROM days WHERE run_id = ?
			ORDER BY day DESC LIMIT ?
		) ORDER BY day ASC`,
		runID, limit,
	)
	return rows, err
}
