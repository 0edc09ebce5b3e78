package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
)

// ErrStoreUnavailable means the store is unreachable or the stories table
// does not exist yet. Read paths treat it as "no stories yet".
var ErrStoreUnavailable = errors.New("story store unavailable")

// Postgres error classes that mean the schema is not there (yet)
const (
	pqUndefinedTable  = "42P01"
	pqUndefinedColumn = "42703"
	pqClassConnection = "08"
)

// classify wraps store-level failures with ErrStoreUnavailable and leaves
// every other error untouched.
func classify(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == pqUndefinedTable, pqErr.Code == pqUndefinedColumn,
			pqErr.Code.Class() == pqClassConnection:
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
