package mysql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"testing"
)

//go:embed schema.sql
var schema string

var (
	testDB      *sql.DB
	testStorage *Storage
)

// Интеграционные тесты гоняются против живой базы: TEST_MYSQL_DSN, например
// root:@tcp(localhost:3306)/shopfloor_test?parseTime=true&clientFoundRows=true
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		fmt.Println("TEST_MYSQL_DSN not set, skipping mysql integration tests")
		os.Exit(m.Run())
	}

	var err error
	testDB, err = sql.Open("mysql", dsn)
	if err != nil {
		panic(fmt.Errorf("не удалось подключиться к тестовой БД: %w", err))
	}

	if err := testDB.Ping(); err != nil {
		panic(fmt.Errorf("ping failed: %w", err))
	}

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := testDB.Exec(stmt); err != nil {
			panic(fmt.Errorf("schema: %w", err))
		}
	}

	testStorage = NewWithDB(testDB)

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}
