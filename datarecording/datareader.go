package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
)

// QueryParams encapsulates all the query parameters.
type QueryParams struct {
	// Where holds the WHERE clause without the "WHERE" keyword.
	// Example: "Op = ?"
	Where string

	// Args holds the arguments for the placeholders in Where.
	Args []any

	// Limit is the maximum number of records to return. 0 means no limit.
	Limit int

	// Offset is the number of records to skip.
	Offset int

	// OrderBy specifies sorting, without the "ORDER BY" keywords.
	OrderBy string
}

// DataReader reads recorded data back from a database.
type DataReader interface {
	// MapTable establishes a mapping between a database table and a Go
	// struct type. The mapping is required before querying a table.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the names of all the mapped tables.
	ListTables() []string

	// Query executes a query on a table and returns the matching entries
	// and the total number of rows in the table.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	// Close closes the reader.
	Close() error
}

// NewReader creates a DataReader over an existing SQLite file.
func NewReader(dbFilename string) DataReader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return &sqliteReader{
		DB:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

// NewReaderWithDB creates a DataReader over a given database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		DB:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

// sqliteReader reads data from a SQLite database.
type sqliteReader struct {
	*sql.DB

	typeMap map[string]reflect.Type
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.typeMap[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables() []string {
	tables := make([]string, 0, len(r.typeMap))
	for name := range r.typeMap {
		tables = append(tables, name)
	}

	return tables
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) (results []any, totalCount int, err error) {
	entryType, ok := r.typeMap[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	totalCount, err = r.countRows(ctx, tableName)
	if err != nil {
		return nil, 0, err
	}

	query, args := buildQuery(tableName, params)

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		entry := reflect.New(entryType).Elem()

		fields := make([]any, entryType.NumField())
		for i := range fields {
			fields[i] = entry.Field(i).Addr().Interface()
		}

		if err := rows.Scan(fields...); err != nil {
			return nil, 0, err
		}

		results = append(results, entry.Interface())
	}

	return results, totalCount, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.DB.Close()
}

func (r *sqliteReader) countRows(
	ctx context.Context,
	tableName string,
) (int, error) {
	count := 0
	err := r.QueryRowContext(
		ctx, "SELECT COUNT(*) FROM "+tableName).Scan(&count)

	return count, err
}

func buildQuery(tableName string, params QueryParams) (string, []any) {
	query := "SELECT * FROM " + tableName
	args := []any{}

	if params.Where != "" {
		query += " WHERE " + params.Where
		args = append(args, params.Args...)
	}

	if params.OrderBy != "" {
		query += " ORDER BY " + params.OrderBy
	}

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
	}

	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", params.Offset)
	}

	return query, args
}
