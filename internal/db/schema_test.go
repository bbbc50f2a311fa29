package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestEnsureSchemaCreatesOnlyMissingTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	for _, tbl := range schema {
		q := mock.ExpectQuery("information_schema\\.tables").WithArgs(tbl.table)
		if tbl.table == "users" {
			q.WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))
			continue
		}
		q.WillReturnRows(sqlmock.NewRows([]string{"table_name"}))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + tbl.table).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
