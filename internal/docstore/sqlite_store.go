package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"crawshaw.io/sqlite"
	"github.com/google/uuid"
)

const documentColumns = `id, filename, original_name, size, path, blob_id, content_hash, extracted_text, pages, upload_date`

// SQLiteStore is an implementation of Store that uses SQLite.
type SQLiteStore struct {
	mu     sync.Mutex
	conn   *sqlite.Conn
	dbPath string
}

// NewSQLiteStore creates a new SQLiteStore for the database file at dbPath.
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{dbPath: dbPath}
}

// Initialize opens the database and creates the documents table.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := sqlite.OpenConn(s.dbPath, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	s.conn = conn

	if err := s.createTable(); err != nil {
		s.conn.Close()
		s.conn = nil
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

func (s *SQLiteStore) createTable() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			original_name TEXT NOT NULL,
			size INTEGER NOT NULL,
			path TEXT NOT NULL,
			blob_id TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			extracted_text TEXT NOT NULL DEFAULT '',
			pages TEXT NOT NULL DEFAULT '[]',
			upload_date INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS documents_upload_date ON documents (upload_date);`,
	}

	for _, query := range statements {
		if err := s.exec(query); err != nil {
			return err
		}
	}
	return nil
}

// exec runs a statement that returns no rows.
func (s *SQLiteStore) exec(query string, bind ...func(*sqlite.Stmt)) error {
	stmt, err := s.conn.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Reset()

	for _, b := range bind {
		b(stmt)
	}

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

// Close closes the store and releases any resources.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// Create inserts a new document.
func (s *SQLiteStore) Create(ctx context.Context, doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}

	pages, err := encodePages(doc.Pages)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("store is not initialized")
	}

	insertSQL := `INSERT INTO documents (` + documentColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	err = s.exec(insertSQL, func(stmt *sqlite.Stmt) {
		stmt.BindText(1, doc.ID)
		stmt.BindText(2, doc.Filename)
		stmt.BindText(3, doc.OriginalName)
		stmt.BindInt64(4, doc.Size)
		stmt.BindText(5, doc.Path)
		stmt.BindText(6, doc.BlobID)
		stmt.BindText(7, doc.ContentHash)
		stmt.BindText(8, doc.ExtractedText)
		stmt.BindText(9, pages)
		stmt.BindInt64(10, doc.UploadDate.UnixNano())
	})
	if err != nil {
		return fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
	}
	return nil
}

// Get returns the document with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, fmt.Errorf("store is not initialized")
	}
	return s.getLocked(id)
}

func (s *SQLiteStore) getLocked(id string) (*Document, error) {
	docs, err := s.query(`SELECT `+documentColumns+` FROM documents WHERE id = ?;`, func(stmt *sqlite.Stmt) {
		stmt.BindText(1, id)
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return docs[0], nil
}

// List returns all documents, newest upload first.
func (s *SQLiteStore) List(ctx context.Context) ([]*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, fmt.Errorf("store is not initialized")
	}
	return s.query(`SELECT ` + documentColumns + ` FROM documents ORDER BY upload_date DESC, id;`)
}

// SearchByName returns documents whose original name contains name.
// SQLite's LIKE ignores ASCII case.
func (s *SQLiteStore) SearchByName(ctx context.Context, name string) ([]*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, fmt.Errorf("store is not initialized")
	}

	pattern := "%" + escapeLike(name) + "%"
	return s.query(`SELECT `+documentColumns+` FROM documents
	WHERE original_name LIKE ? ESCAPE '\'
	ORDER BY upload_date DESC, id;`, func(stmt *sqlite.Stmt) {
		stmt.BindText(1, pattern)
	})
}

// Update applies changes to a document.
func (s *SQLiteStore) Update(ctx context.Context, id string, changes Changes) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, fmt.Errorf("store is not initialized")
	}

	doc, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}
	if changes.OriginalName != nil {
		doc.OriginalName = *changes.OriginalName
	}
	if changes.Filename != nil {
		doc.Filename = *changes.Filename
	}

	err = s.exec(`UPDATE documents SET original_name = ?, filename = ? WHERE id = ?;`, func(stmt *sqlite.Stmt) {
		stmt.BindText(1, doc.OriginalName)
		stmt.BindText(2, doc.Filename)
		stmt.BindText(3, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update document %s: %w", id, err)
	}
	return doc, nil
}

// SetExtractedText stores the text of a document.
func (s *SQLiteStore) SetExtractedText(ctx context.Context, id string, text string, pages []string) (*Document, error) {
	encoded, err := encodePages(pages)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, fmt.Errorf("store is not initialized")
	}

	err = s.exec(`UPDATE documents SET extracted_text = ?, pages = ? WHERE id = ?;`, func(stmt *sqlite.Stmt) {
		stmt.BindText(1, text)
		stmt.BindText(2, encoded)
		stmt.BindText(3, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store text for document %s: %w", id, err)
	}
	if s.conn.Changes() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.getLocked(id)
}

// Delete removes a document.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, fmt.Errorf("store is not initialized")
	}

	doc, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}

	err = s.exec(`DELETE FROM documents WHERE id = ?;`, func(stmt *sqlite.Stmt) {
		stmt.BindText(1, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return doc, nil
}

// query runs a select over documentColumns and scans every row.
func (s *SQLiteStore) query(query string, bind ...func(*sqlite.Stmt)) ([]*Document, error) {
	stmt, err := s.conn.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Reset()

	for _, b := range bind {
		b(stmt)
	}

	docs := []*Document{}
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, fmt.Errorf("failed to execute select statement: %w", err)
		}
		if !hasRow {
			break
		}

		doc := &Document{
			ID:            stmt.ColumnText(0),
			Filename:      stmt.ColumnText(1),
			OriginalName:  stmt.ColumnText(2),
			Size:          stmt.ColumnInt64(3),
			Path:          stmt.ColumnText(4),
			BlobID:        stmt.ColumnText(5),
			ContentHash:   stmt.ColumnText(6),
			ExtractedText: stmt.ColumnText(7),
			UploadDate:    time.Unix(0, stmt.ColumnInt64(9)).UTC(),
		}
		if err := json.Unmarshal([]byte(stmt.ColumnText(8)), &doc.Pages); err != nil {
			return nil, fmt.Errorf("failed to decode pages for document %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func encodePages(pages []string) (string, error) {
	if pages == nil {
		pages = []string{}
	}
	data, err := json.Marshal(pages)
	if err != nil {
		return "", fmt.Errorf("failed to encode pages: %w", err)
	}
	return string(data), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
