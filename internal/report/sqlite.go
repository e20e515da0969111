// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// Store appends runs to a SQLite database. Each run keeps its queried
// identifiers, including those without citations, and every citation row.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database at path and its schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, eris.Wrapf(err, "report: open database %s", path)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			input TEXT,
			started_at TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			interrupted INTEGER NOT NULL,
			queried INTEGER NOT NULL,
			total_citations INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS queried (
			run_id TEXT NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			doi TEXT NOT NULL,
			citation_count INTEGER NOT NULL,
			PRIMARY KEY (run_id, doi)
		)`,
		`CREATE TABLE IF NOT EXISTS citations (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			queried_doi TEXT NOT NULL,
			position INTEGER NOT NULL,
			citing_doi TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			year TEXT,
			source TEXT,
			UNIQUE (run_id, queried_doi, citing_doi)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_citing ON citations(citing_doi)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return eris.Wrap(err, "report: create schema")
		}
	}
	return nil
}

// SaveRun writes run and results in one transaction.
func (s *Store) SaveRun(results *types.Results, run Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return eris.Wrap(err, "report: begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, input, started_at, elapsed_ms, interrupted, queried, total_citations)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Input, run.StartedAt.UTC().Format(time.RFC3339), run.Elapsed.Milliseconds(),
		run.Interrupted, results.Len(), results.TotalCitations(),
	); err != nil {
		return eris.Wrapf(err, "report: insert run %s", run.ID)
	}

	queriedStmt, err := tx.Prepare(`INSERT INTO queried (run_id, position, doi, citation_count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "report: prepare queried insert")
	}
	defer queriedStmt.Close()

	citationStmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO citations (run_id, queried_doi, position, citing_doi, title, authors, year, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "report: prepare citation insert")
	}
	defer citationStmt.Close()

	position := 0
	var insertErr error
	results.Each(func(queried string, citations []types.Citation) {
		if insertErr != nil {
			return
		}
		if _, err := queriedStmt.Exec(run.ID, position, queried, len(citations)); err != nil {
			insertErr = eris.Wrapf(err, "report: insert queried %s", queried)
			return
		}
		position++
		for i, c := range citations {
			authors, err := json.Marshal(c.Authors)
			if err != nil {
				insertErr = eris.Wrap(err, "report: encode authors")
				return
			}
			if _, err := citationStmt.Exec(run.ID, queried, i, c.DOI, c.Title, string(authors), c.Year, c.Source); err != nil {
				insertErr = eris.Wrapf(err, "report: insert citation %s", c.DOI)
				return
			}
		}
	})
	if insertErr != nil {
		return insertErr
	}
	return eris.Wrap(tx.Commit(), "report: commit")
}

// RunCitations returns the stored citations of run grouped by queried DOI
// in their original order.
func (s *Store) RunCitations(runID string) (*types.Results, error) {
	results := types.NewResults()

	rows, err := s.db.Query(`SELECT doi FROM queried WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "report: query identifiers")
	}
	var order []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "report: scan identifier")
		}
		order = append(order, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "report: iterate identifiers")
	}

	for _, queried := range order {
		citations, err := s.citationsFor(runID, queried)
		if err != nil {
			return nil, err
		}
		results.Set(queried, citations)
	}
	return results, nil
}

func (s *Store) citationsFor(runID, queried string) ([]types.Citation, error) {
	rows, err := s.db.Query(
		`SELECT citing_doi, title, authors, year, source FROM citations
		 WHERE run_id = ? AND queried_doi = ? ORDER BY position`, runID, queried)
	if err != nil {
		return nil, eris.Wrapf(err, "report: query citations of %s", queried)
	}
	defer rows.Close()

	var citations []types.Citation
	for rows.Next() {
		var c types.Citation
		var authors string
		if err := rows.Scan(&c.DOI, &c.Title, &authors, &c.Year, &c.Source); err != nil {
			return nil, eris.Wrap(err, "report: scan citation")
		}
		if err := json.Unmarshal([]byte(authors), &c.Authors); err != nil {
			return nil, eris.Wrapf(err, "report: decode authors of %s", c.DOI)
		}
		citations = append(citations, c)
	}
	return citations, eris.Wrap(rows.Err(), "report: iterate citations")
}

func saveSQLite(path string, results *types.Results, run Run) error {
	store, err := OpenStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveRun(results, run)
}
