package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mmbios/bibhtml/internal/reference"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectRefFields contains the standard field list for SELECT queries.
const selectRefFields = `pos, kind, key, doi, title, journal, publisher,
	volume, issue, pages, pub_year, pmid, url,
	source_type, source_id, authors_json, tags_json`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist. Citation
// keys are not unique in a hand-edited bibliography, so rows are keyed by
// their position in the source.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS refs (
			pos INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			key TEXT,
			doi TEXT,
			title TEXT NOT NULL,
			journal TEXT,
			publisher TEXT,
			volume TEXT,
			issue TEXT,
			pages TEXT,
			pub_year INTEGER NOT NULL,
			pmid TEXT,
			url TEXT,
			source_type TEXT NOT NULL,
			source_id TEXT,
			authors_json TEXT NOT NULL,
			tags_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_refs_doi ON refs(doi) WHERE doi IS NOT NULL AND doi != '';
		CREATE INDEX IF NOT EXISTS idx_refs_year ON refs(pub_year);

		CREATE VIRTUAL TABLE IF NOT EXISTS refs_fts USING fts5(
			pos UNINDEXED,
			title,
			journal,
			authors_text,
			tags_text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	refs, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}
	return d.Rebuild(refs)
}

// Rebuild replaces the indexed references with refs.
func (d *DB) Rebuild(refs []reference.Reference) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM refs"); err != nil {
		return 0, fmt.Errorf("clearing refs table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM refs_fts"); err != nil {
		return 0, fmt.Errorf("clearing refs_fts table: %w", err)
	}

	refsStmt, err := tx.Prepare(`
		INSERT INTO refs (
			pos, kind, key, doi, title, journal, publisher,
			volume, issue, pages, pub_year, pmid, url,
			source_type, source_id, authors_json, tags_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing refs insert: %w", err)
	}
	defer refsStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO refs_fts (pos, title, journal, authors_text, tags_text)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for pos, ref := range refs {
		authorsJSON, err := json.Marshal(ref.Authors)
		if err != nil {
			return 0, fmt.Errorf("marshaling authors for %s: %w", ref.Key, err)
		}
		var tagsJSON []byte
		if len(ref.Tags) > 0 {
			tagsJSON, err = json.Marshal(ref.Tags)
			if err != nil {
				return 0, fmt.Errorf("marshaling tags for %s: %w", ref.Key, err)
			}
		}

		_, err = refsStmt.Exec(
			pos, ref.Kind, nullableStringValue(ref.Key), nullableStringValue(ref.DOI),
			ref.Title, nullableStringValue(ref.Journal), nullableStringValue(ref.Publisher),
			nullableStringValue(ref.Volume), nullableStringValue(ref.Issue), nullableStringValue(ref.Pages),
			ref.Year, nullableStringValue(ref.PMID), nullableStringValue(ref.URL),
			ref.Source.Type, nullableStringValue(ref.Source.ID),
			string(authorsJSON), nullableString(tagsJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting ref %s: %w", ref.Key, err)
		}

		_, err = ftsStmt.Exec(pos, ref.Title, ref.Journal, formatAuthorsText(ref.Authors), strings.Join(ref.Tags, " "))
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", ref.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(refs), nil
}

// formatAuthorsText creates a searchable text representation of authors.
func formatAuthorsText(authors []reference.Author) string {
	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.String()
	}
	return strings.Join(names, ", ")
}

// GetByKey retrieves the first reference with the given citation key.
func (d *DB) GetByKey(key string) (*reference.Reference, error) {
	row := d.db.QueryRow(`SELECT `+selectRefFields+` FROM refs WHERE key = ? ORDER BY pos LIMIT 1`, key)
	return scanReference(row)
}

// Search performs a full-text search and returns matching references in
// bibliography order.
func (d *DB) Search(query string, limit int) ([]reference.Reference, error) {
	return d.SearchWithFilters(SearchFilters{Keyword: query}, limit)
}

// SearchFilters contains optional filters for SearchWithFilters.
type SearchFilters struct {
	Keyword  string // General keyword search across all text fields
	Author   string // Author name, prefix matched
	Tag      string // Category code
	YearFrom int    // Minimum publication year (0 = no minimum)
	YearTo   int    // Maximum publication year (0 = no maximum)
}

// SearchWithFilters returns references matching all of the given filters.
func (d *DB) SearchWithFilters(filters SearchFilters, limit int) ([]reference.Reference, error) {
	var ftsTerms []string
	var args []interface{}

	if filters.Keyword != "" {
		ftsTerms = append(ftsTerms, prepareFTSQuery(filters.Keyword))
	}
	if strings.TrimSpace(filters.Author) != "" {
		ftsTerms = append(ftsTerms, "authors_text:"+prepareAuthorQuery(filters.Author))
	}
	if filters.Tag = strings.TrimSpace(filters.Tag); filters.Tag != "" {
		ftsTerms = append(ftsTerms, "tags_text:"+quoteFTS(filters.Tag))
	}

	query := `SELECT ` + selectRefFields + ` FROM refs WHERE 1=1`
	if len(ftsTerms) > 0 {
		query += ` AND pos IN (SELECT pos FROM refs_fts WHERE refs_fts MATCH ?)`
		args = append(args, strings.Join(ftsTerms, " AND "))
	}
	if filters.YearFrom > 0 {
		query += " AND pub_year >= ?"
		args = append(args, filters.YearFrom)
	}
	if filters.YearTo > 0 {
		query += " AND pub_year <= ?"
		args = append(args, filters.YearTo)
	}

	query += " ORDER BY pos"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanReferences(rows)
}

// ListAll returns all references in bibliography order, optionally limited.
func (d *DB) ListAll(limit int) ([]reference.Reference, error) {
	return d.SearchWithFilters(SearchFilters{}, limit)
}

// Count returns the total number of references.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM refs").Scan(&count)
	return count, err
}

// CountByYear returns the number of references per publication year.
func (d *DB) CountByYear() (map[int]int, error) {
	rows, err := d.db.Query("SELECT pub_year, COUNT(*) FROM refs GROUP BY pub_year")
	if err != nil {
		return nil, fmt.Errorf("counting by year: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var year, n int
		if err := rows.Scan(&year, &n); err != nil {
			return nil, err
		}
		counts[year] = n
	}
	return counts, rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReference(s scanner) (*reference.Reference, error) {
	var ref reference.Reference
	var pos int
	var key, doi, journal, publisher, volume, issue, pages, pmid, url, sourceID sql.NullString
	var authorsJSON, tagsJSON sql.NullString

	err := s.Scan(
		&pos, &ref.Kind, &key, &doi, &ref.Title, &journal, &publisher,
		&volume, &issue, &pages, &ref.Year, &pmid, &url,
		&ref.Source.Type, &sourceID, &authorsJSON, &tagsJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	ref.Key = key.String
	ref.DOI = doi.String
	ref.Journal = journal.String
	ref.Publisher = publisher.String
	ref.Volume = volume.String
	ref.Issue = issue.String
	ref.Pages = pages.String
	ref.PMID = pmid.String
	ref.URL = url.String
	ref.Source.ID = sourceID.String

	if authorsJSON.Valid {
		if err := json.Unmarshal([]byte(authorsJSON.String), &ref.Authors); err != nil {
			return nil, fmt.Errorf("parsing authors JSON for row %d: %w", pos, err)
		}
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &ref.Tags); err != nil {
			return nil, fmt.Errorf("parsing tags JSON for row %d: %w", pos, err)
		}
	}

	return &ref, nil
}

func scanReferences(rows *sql.Rows) ([]reference.Reference, error) {
	var refs []reference.Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		if ref != nil {
			refs = append(refs, *ref)
		}
	}
	return refs, rows.Err()
}

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}
	if strings.ContainsAny(query, "\"*+-:(){}[]^~.,/") {
		return quoteFTS(query)
	}
	return query
}

// quoteFTS turns s into a single FTS5 phrase.
func quoteFTS(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
}

// prepareAuthorQuery prepares an author name for FTS5 search with prefix matching.
func prepareAuthorQuery(author string) string {
	parts := strings.Fields(author)
	var terms []string
	for _, part := range parts {
		terms = append(terms, quoteFTS(part)+"*")
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}
