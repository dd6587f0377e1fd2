package rfi

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	// Blind import of the sqlite3 driver used by OpenStatisticsStore.
	_ "github.com/mattn/go-sqlite3"
)

const (
	statsCreateTableTmpl = `CREATE TABLE IF NOT EXISTS quality_statistics (
		"ID"           INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"RunID"        TEXT NOT NULL,
		"BaselineID"   TEXT NOT NULL,
		"Polarization" INTEGER,
		"Channel"      INTEGER,
		"Frequency"    REAL,
		"Count"        INTEGER,
		"RFICount"     INTEGER,
		"Sum"          REAL,
		"SumSquared"   REAL
	);`
	statsInsertTmpl = `INSERT INTO quality_statistics (
		RunID,
		BaselineID,
		Polarization,
		Channel,
		Frequency,
		Count,
		RFICount,
		Sum,
		SumSquared
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`
)

// StatisticsStore persists quality statistics in a sqlite database.
// Each WriteStatistics call stores one row per (polarization, channel)
// under a fresh run identifier, so successive runs can be compared.
type StatisticsStore struct {
	DB *sql.DB
}

// OpenStatisticsStore opens (or creates) the sqlite database at path
// and ensures the statistics table exists.
func OpenStatisticsStore(path string) (*StatisticsStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &IOError{Op: "opening statistics store", Err: err}
	}
	store := &StatisticsStore{DB: db}
	if err := store.createTableIfNotExists(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *StatisticsStore) Close() error {
	return s.DB.Close()
}

func (s *StatisticsStore) createTableIfNotExists() error {
	if _, err := s.DB.Exec(statsCreateTableTmpl); err != nil {
		return &IOError{Op: "creating statistics table", Err: err}
	}
	return nil
}

// WriteStatistics stores the collected statistics under a new run
// identifier and returns that identifier.
func (s *StatisticsStore) WriteStatistics(stats *QualityStatistics, baselineID string) (string, error) {
	runID := uuid.New().String()
	statement, err := s.DB.Prepare(statsInsertTmpl)
	if err != nil {
		return "", &IOError{Op: "preparing statistics insert", Err: err}
	}
	defer statement.Close()
	for p := 0; p < stats.PolarizationCount(); p++ {
		for c, channel := range stats.Channels(p) {
			_, err := statement.Exec(runID, baselineID, p, c, channel.Frequency,
				channel.Count, channel.RFICount, channel.Sum, channel.SumSquared)
			if err != nil {
				return "", &IOError{Op: fmt.Sprintf(
					"storing statistics for polarization %d channel %d", p, c), Err: err}
			}
		}
	}
	return runID, nil
}
