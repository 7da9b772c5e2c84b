package main

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"modernc.org/sqlite"
)

// DateLayout is the wire and storage layout of a book publish date.
const DateLayout = "2006-01-02"

const (
	bookColumns     = "id, title, author, publish_date, publisher"
	selectBooksStmt = "SELECT " + bookColumns + " FROM books"
	insertBookStmt  = "INSERT INTO books (title, author, publish_date, publisher) VALUES (?, ?, ?, ?) RETURNING " + bookColumns
	updateBookStmt  = "UPDATE books SET title = ?, author = ?, publish_date = ?, publisher = ? WHERE id = ? RETURNING " + bookColumns
	deleteBookStmt  = "DELETE FROM books WHERE id = ? RETURNING id"
)

var booksSchemas = map[string]string{
	PostgresDialect.Name: `CREATE TABLE IF NOT EXISTS books (
	id           BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	title        TEXT NOT NULL,
	author       TEXT NOT NULL,
	publish_date DATE NOT NULL,
	publisher    TEXT NOT NULL
)`,
	SQLiteDialect.Name: `CREATE TABLE IF NOT EXISTS books (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT NOT NULL,
	author       TEXT NOT NULL,
	publish_date DATE NOT NULL,
	publisher    TEXT NOT NULL
)`,
}

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(FoldFunction, 1, foldText)
}

// foldText lowers any Unicode letter so that LIKE ignores case beyond ASCII.
func foldText(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

type sqlBookStorage struct {
	logger  *zap.Logger
	client  *sql.DB
	dialect Dialect
}

// NewSQLBookStorage provides an instance of sql-based book storage.
// The client is a shared pool, each call acquires a connection for
// a single statement and releases it right after.
func NewSQLBookStorage(logger *zap.Logger, client *sql.DB, dialect Dialect) BookStorage {
	return &sqlBookStorage{
		logger:  logger,
		client:  client,
		dialect: dialect,
	}
}

// GetSQLClient provides a ready to use connection pool for the configured driver.
func GetSQLClient(config *Config) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(config.Database.Driver)
	if err != nil {
		return nil, dialect, err
	}

	client, err := sql.Open(dialect.Driver, config.Database.DSN)
	if err != nil {
		return nil, dialect, fmt.Errorf("failed to open the database: %w", err)
	}

	if config.Database.MaxOpenConns > 0 {
		client.SetMaxOpenConns(config.Database.MaxOpenConns)
	}
	if config.Database.MaxIdleConns > 0 {
		client.SetMaxIdleConns(config.Database.MaxIdleConns)
	}
	if config.Database.ConnMaxLifetime > 0 {
		client.SetConnMaxLifetime(config.Database.ConnMaxLifetime)
	}

	// test connection.
	ctx, cancel := context.WithTimeout(context.Background(), config.Database.PingTimeout)
	defer cancel()
	if err = client.PingContext(ctx); err != nil {
		client.Close()
		return nil, dialect, fmt.Errorf("test connection failed: %w", err)
	}

	if config.Database.Bootstrap {
		if err = BootstrapBooksSchema(ctx, client, dialect); err != nil {
			client.Close()
			return nil, dialect, err
		}
	}
	return client, dialect, nil
}

// BootstrapBooksSchema creates the books table if it does not exist yet.
func BootstrapBooksSchema(ctx context.Context, client *sql.DB, dialect Dialect) error {
	if _, err := client.ExecContext(ctx, booksSchemas[dialect.Name]); err != nil {
		return fmt.Errorf("failed to create books table: %w", err)
	}
	return nil
}

// Search retrieves all books matching the filter. Each present criterion
// narrows the result with a case-insensitive substring match.
func (ss *sqlBookStorage) Search(ctx context.Context, filter BookFilter) ([]Book, error) {
	q := BuildSearchQuery(filter)
	query, values := q.Render(ss.dialect)
	ss.logger.Debug("searching books", zap.Int("search.conditions", len(q.Conditions())), zap.String("search.query", query))
	rows, err := ss.client.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}
	return books, nil
}

// BuildSearchQuery turns the filter into a select query. The criteria
// are always considered in the same order: title, author, publisher.
func BuildSearchQuery(filter BookFilter) *SelectQuery {
	return NewSelectQuery(selectBooksStmt).
		WhereContains("title", filter.Title).
		WhereContains("author", filter.Author).
		WhereContains("publisher", filter.Publisher).
		OrderBy("id")
}

// GetOne retrieves a book record based on its ID.
func (ss *sqlBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	query, values := NewSelectQuery(selectBooksStmt).Where("id", OpEqual, id).Render(ss.dialect)
	row := ss.client.QueryRowContext(ctx, query, values...)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return book, ErrBookNotFound
	}
	return book, err
}

// Add inserts a new book record and returns it with the store assigned id.
func (ss *sqlBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	row := ss.client.QueryRowContext(ctx, ss.dialect.Rebind(insertBookStmt),
		book.Title, book.Author, book.PublishDate, book.Publisher)
	return scanBook(row)
}

// Update replaces the four fields of an existing book record.
func (ss *sqlBookStorage) Update(ctx context.Context, id int64, book Book) (Book, error) {
	row := ss.client.QueryRowContext(ctx, ss.dialect.Rebind(updateBookStmt),
		book.Title, book.Author, book.PublishDate, book.Publisher, id)
	updated, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return book, ErrBookNotFound
	}
	return updated, err
}

// Delete removes a book record based on its ID.
func (ss *sqlBookStorage) Delete(ctx context.Context, id int64) error {
	var deleted int64
	err := ss.client.QueryRowContext(ctx, ss.dialect.Rebind(deleteBookStmt), id).Scan(&deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (Book, error) {
	var book Book
	err := row.Scan(&book.ID, &book.Title, &book.Author, dateScanner{&book.PublishDate}, &book.Publisher)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, err
	}
	if err != nil {
		return Book{}, fmt.Errorf("failed to scan book: %w", err)
	}
	return book, nil
}

// dateScanner normalizes a DATE column into the DateLayout text whatever
// the driver returns: time.Time for pgx, text or time.Time for sqlite.
type dateScanner struct {
	value *string
}

func (ds dateScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ds.value = ""
	case time.Time:
		*ds.value = v.Format(DateLayout)
	case string:
		*ds.value = normalizeDate(v)
	case []byte:
		*ds.value = normalizeDate(string(v))
	default:
		return fmt.Errorf("unsupported publish date type %T", src)
	}
	return nil
}

func normalizeDate(s string) string {
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return t.Format(DateLayout)
		}
	}
	return s
}
