package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/go-sql-driver/mysql"

	"shopfloor/internal/storage"
)

// mysql: 1205 lock wait timeout, 1213 deadlock
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// Чтения повторяются при сбоях соединения; записи нет, они не идемпотентны.
func defaultReadRetry() retry.Config {
	return retry.Config{
		MaxAttempts:   3,
		InitialDelay:  20 * time.Millisecond,
		BackoffPolicy: retry.BackoffExponential,
	}
}

// transient: ошибки, после которых повтор чтения может пройти.
// Отмена контекста, ошибки сканирования и SQL повторять бессмысленно.
func transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == errLockWaitTimeout || mysqlErr.Number == errDeadlock
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// attempt прогоняет read через retry. Постоянная ошибка отдаётся ретраю как успех,
// чтобы он остановился, и возвращается отдельно.
func attempt[T any](ctx context.Context, cfg retry.Config, read func(ctx context.Context) (T, error)) (T, error) {
	var permanent error

	v, err := retry.New[T](cfg).Do(ctx, func(ctx context.Context) (T, error) {
		permanent = nil
		v, err := read(ctx)
		if err != nil && !transient(err) {
			permanent = err
			var zero T
			return zero, nil
		}
		return v, err
	})
	if permanent != nil {
		return v, permanent
	}
	return v, err
}

// queryOne читает одну строку. Отсутствие строки не повторяется и становится ErrNotFound.
func queryOne[T any](ctx context.Context, s *Storage, op, entity string, id int64, scan func(rowScanner) (T, error), stmt string, args ...any) (T, error) {
	v, err := attempt(ctx, s.readRetry, func(ctx context.Context) (T, error) {
		return scan(s.db.QueryRowContext(ctx, stmt, args...))
	})

	var zero T
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("%s: %s id=%d: %w", op, entity, id, storage.ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func queryList[T any](ctx context.Context, s *Storage, op string, scan func(rowScanner) (T, error), stmt string, args ...any) ([]T, error) {
	list, err := attempt(ctx, s.readRetry, func(ctx context.Context) ([]T, error) {
		rows, err := s.db.QueryContext(ctx, stmt, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var out []T
		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
			}
			out = append(out, v)
		}

		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("ошибка при итерации по строкам: %w", err)
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}
