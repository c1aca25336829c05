package connectors

import (
	"context"
	"time"
)

const (
	TypePostgres = "postgresql"
	TypeMySQL    = "mysql"
)

// DataSource describes an external SQL database a query report reads from
type DataSource struct {
	Type     string `json:"type" bson:"type"` // "postgresql" or "mysql"
	Host     string `json:"host" bson:"host"`
	Port     int    `json:"port,omitempty" bson:"port,omitempty"`
	Database string `json:"database" bson:"database"`
	Username string `json:"username" bson:"username"`
	Password string `json:"password,omitempty" bson:"password,omitempty"`
	SSLMode  string `json:"ssl_mode,omitempty" bson:"ssl_mode,omitempty"`
}

// QueryResponse represents query results
type QueryResponse struct {
	Columns   []string
	Data      []map[string]interface{}
	Timestamp time.Time
}

// Connector runs parameterised SQL against one data source
type Connector interface {
	// Query executes query with :name parameters bound from params
	Query(ctx context.Context, query string, params map[string]interface{}) (*QueryResponse, error)

	// TestConnection tests if connection is valid
	TestConnection(ctx context.Context) error

	// Disconnect closes connection
	Disconnect(ctx context.Context) error

	// GetType returns the connector type
	GetType() string
}
