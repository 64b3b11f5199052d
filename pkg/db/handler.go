package db

import (
	"context"
	"database/sql"
)

// Handler runs store queries. Both *DB and *Tx implement it, so a query
// helper can work inside or outside a transaction.
type Handler interface {
	DriverName() string
	Rebind(string) string

	Get(interface{}, string, ...interface{}) error
	Select(interface{}, string, ...interface{}) error
	Exec(string, ...interface{}) (sql.Result, error)

	GetContext(context.Context, interface{}, string, ...interface{}) error
	SelectContext(context.Context, interface{}, string, ...interface{}) error
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}

var (
	_ Handler = (*DB)(nil)
	_ Handler = (*Tx)(nil)
)
