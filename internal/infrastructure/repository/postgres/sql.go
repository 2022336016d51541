package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
)

const (
	sqlStateUniqueViolation   = "23505"
	sqlStateAdminShutdown     = "57P01"
	sqlStateCrashShutdown     = "57P02"
	sqlStateCannotConnectNow  = "57P03"
	sqlStateTooManyConnection = "53300"
	sqlClassConnection        = "08"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == sqlStateUniqueViolation
}

func isConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch code {
		case sqlStateAdminShutdown, sqlStateCrashShutdown, sqlStateCannotConnectNow, sqlStateTooManyConnection:
			return true
		}
		return strings.HasPrefix(code, sqlClassConnection)
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// classifyError tags err with the fixture store sentinel callers branch on.
func classifyError(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", op, fixture.ErrDuplicateProviderID, err)
	case isConnectionFailure(err):
		return fmt.Errorf("%s: %w: %w", op, fixture.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
