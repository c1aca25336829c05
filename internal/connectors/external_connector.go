package connectors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

var ErrMissingParam = errors.New("missing query parameter")

// ExternalDBConnector connects to external SQL databases
type ExternalDBConnector struct {
	dbType string
	db     *sql.DB
}

// NewExternalDBConnector opens and pings a pooled connection for source
func NewExternalDBConnector(ctx context.Context, source DataSource) (Connector, error) {
	connStr, err := BuildConnectionString(source)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	driver := source.Type
	if source.Type == TypePostgres {
		driver = "postgres"
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &ExternalDBConnector{dbType: source.Type, db: db}, nil
}

func (c *ExternalDBConnector) Disconnect(ctx context.Context) error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Query executes a query against the external database
func (c *ExternalDBConnector) Query(ctx context.Context, query string, params map[string]interface{}) (*QueryResponse, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	bound, args, err := BindNamed(query, params, c.dbType)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, bound, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, data, err := rowsToMaps(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to process query results: %w", err)
	}

	return &QueryResponse{
		Columns:   columns,
		Data:      data,
		Timestamp: time.Now(),
	}, nil
}

func (c *ExternalDBConnector) TestConnection(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database connection not established")
	}
	return c.db.PingContext(ctx)
}

func (c *ExternalDBConnector) GetType() string {
	return c.dbType
}

// BuildConnectionString creates a driver DSN from source
func BuildConnectionString(source DataSource) (string, error) {
	if source.Host == "" || source.Database == "" || source.Username == "" {
		return "", fmt.Errorf("missing required connection parameters")
	}

	port := source.Port
	switch source.Type {
	case TypePostgres:
		if port == 0 {
			port = 5432
		}
		sslMode := source.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			source.Host, port, source.Username, source.Password, source.Database, sslMode,
		), nil
	case TypeMySQL:
		if port == 0 {
			port = 3306
		}
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			source.Username, source.Password, source.Host, port, source.Database,
		), nil
	default:
		return "", fmt.Errorf("unsupported data source type %q", source.Type)
	}
}

// BindNamed rewrites :name parameters into driver placeholders.
// Quoted literals and postgres "::" casts are left untouched.
func BindNamed(query string, params map[string]interface{}, dbType string) (string, []interface{}, error) {
	var out strings.Builder
	var args []interface{}
	argIndex := 1

	var quote byte
	for i := 0; i < len(query); i++ {
		ch := query[i]

		if quote != 0 {
			out.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
			continue
		}

		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
			out.WriteByte(ch)
		case ch == ':' && i+1 < len(query) && query[i+1] == ':':
			out.WriteString("::")
			i++
		case ch == ':' && i+1 < len(query) && isIdentStart(query[i+1]):
			j := i + 1
			for j < len(query) && isIdentPart(query[j]) {
				j++
			}
			name := query[i+1 : j]
			value, ok := params[name]
			if !ok {
				return "", nil, fmt.Errorf("%w: %s", ErrMissingParam, name)
			}
			out.WriteString(getPlaceholder(dbType, argIndex))
			args = append(args, value)
			argIndex++
			i = j - 1
		default:
			out.WriteByte(ch)
		}
	}

	return out.String(), args, nil
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

// getPlaceholder returns the appropriate placeholder for the database type
func getPlaceholder(dbType string, index int) string {
	if dbType == TypePostgres {
		return fmt.Sprintf("$%d", index)
	}
	return "?"
}

// rowsToMaps converts SQL rows to a slice of maps
func rowsToMaps(rows *sql.Rows) ([]string, []map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	result := []map[string]interface{}{}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = val
			}
		}

		result = append(result, row)
	}

	return columns, result, rows.Err()
}
