package retry

import (
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes that are safe to retry
var recoverableSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57P01": true, // admin_shutdown
	"08000": true, // connection_exception
	"08003": true, // connection_does_not_exist
	"08006": true, // connection_failure
}

// Message fragments of transient failures from drivers and the network
var recoverablePatterns = []string{
	"connection reset by peer",
	"connection refused",
	"timeout",
	"temporary failure",
	"network is unreachable",
	"broken pipe",
	"eof",
	"no such host",
	"database is locked",
	"sqlite_busy",
	"too many clients",
}

// IsRecoverable reports whether err is a transient failure worth retrying.
// Lifecycle rejections and validation errors are never recoverable.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return recoverableSQLStates[pgErr.Code]
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range recoverablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
