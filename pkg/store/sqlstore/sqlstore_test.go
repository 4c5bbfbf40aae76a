package sqlstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/store"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "formflow:secret@tcp(127.0.0.1:3306)/formflow",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestNormalizeDSN(t *testing.T) {
	t.Parallel()

	got, err := NormalizeDSN("formflow:secret@tcp(db:3306)/forms?charset=utf8mb4")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !strings.HasPrefix(got, "formflow:secret@tcp(db:3306)/forms?") {
		t.Fatalf("unexpected dsn %q", got)
	}
	for _, param := range []string{"parseTime=true", "charset=utf8mb4"} {
		if !strings.Contains(got, param) {
			t.Fatalf("expected %q in %q", param, got)
		}
	}

	if _, err := NormalizeDSN("not a dsn"); err == nil {
		t.Fatalf("expected invalid dsn error")
	}
}

func TestUpsertStatement(t *testing.T) {
	t.Parallel()

	stmt := upsert(dryRunDB(t), FormRecord{ID: 7, Revision: "r-1", Body: []byte(`{}`)}).Statement
	sql := stmt.SQL.String()
	for _, want := range []string{"INSERT INTO `formflow_forms`", "ON DUPLICATE KEY UPDATE", "`revision`", "`body`"} {
		if !strings.Contains(sql, want) {
			t.Fatalf("expected %q in %q", want, sql)
		}
	}
	if strings.Contains(sql, "`created_at`=VALUES") {
		t.Fatalf("created_at must not be overwritten on conflict: %q", sql)
	}
}

func TestRevisionRecord_BeforeCreateAssignsID(t *testing.T) {
	t.Parallel()

	rec := RevisionRecord{FormID: 3}
	if err := rec.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if len(rec.ID) != 36 {
		t.Fatalf("expected uuid revision id, got %q", rec.ID)
	}

	kept := RevisionRecord{ID: "fixed"}
	_ = kept.BeforeCreate(nil)
	if kept.ID != "fixed" {
		t.Fatalf("existing id overwritten: %q", kept.ID)
	}
}

func TestStore_RejectsInvalidID(t *testing.T) {
	t.Parallel()

	s := New(dryRunDB(t))
	if err := s.Save(context.Background(), -1, schema.Default()); !errors.Is(err, store.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, _, err := s.Load(context.Background(), 0); !errors.Is(err, store.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}
