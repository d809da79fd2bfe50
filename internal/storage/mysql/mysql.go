package mysql

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/go-sql-driver/mysql"

	"shopfloor/internal/config"
	"shopfloor/internal/storage"
)

// mysql error 1452: внешний ключ ссылается на несуществующую строку
const errNoReferencedRow = 1452

type Storage struct {
	db        *sql.DB
	readRetry retry.Config
}

func New(cfg config.Config) (*Storage, error) {
	const op = "storage.mysql.New"

	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db, readRetry: defaultReadRetry()}, nil
}

// NewWithDB оборачивает уже открытое соединение (тесты, CLI).
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db, readRetry: defaultReadRetry()}
}

// DSN собирает строку подключения из конфига.
// clientFoundRows нужен, чтобы UPDATE без изменений возвращал 1 затронутую строку,
// а 0 означал «записи нет».
func DSN(cfg config.Config) string {
	c := mysql.NewConfig()
	c.User = cfg.DBUser
	c.Passwd = cfg.DBPassword
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", cfg.DBHost, cfg.DBPort)
	c.DBName = cfg.DBName
	c.ParseTime = cfg.ParseTime
	c.Loc = time.UTC
	c.ClientFoundRows = true

	return c.FormatDSN()
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func placeholders(n int) string {
	return strings.TrimRight(strings.Repeat("?,", n), ",")
}

// expectOne превращает 0 затронутых строк в ErrNotFound.
func expectOne(res sql.Result, op string, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %s id=%d: %w", op, entity, id, storage.ErrNotFound)
	}
	return nil
}

// applied: условный UPDATE нашёл строку (clientFoundRows считает совпавшие, а не изменённые).
func applied(res sql.Result, op string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n > 0, nil
}

func isMissingReference(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errNoReferencedRow
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func int64Ptr(i sql.NullInt64) *int64 {
	if !i.Valid {
		return nil
	}
	v := i.Int64
	return &v
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
