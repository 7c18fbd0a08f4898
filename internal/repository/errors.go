package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
)

// ErrConnectionLost marks database errors caused by a dead connection. The
// drainer aborts the remaining batch for the cycle when it sees this; the
// next scheduled tick retries.
var ErrConnectionLost = errors.New("database connection lost")

// wrapConnErr tags connection-level failures with ErrConnectionLost so
// callers can tell them apart from per-row failures.
func wrapConnErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return errors.Join(ErrConnectionLost, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Join(ErrConnectionLost, err)
	}
	return err
}
