// Package sqlstore keeps form schemas in MySQL through gorm. Every save
// replaces the current blob and appends an immutable revision row.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/store"
)

// FormRecord is the current schema blob for a form.
type FormRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false"`
	Revision  string `gorm:"type:char(36);not null"`
	Body      []byte `gorm:"type:longblob;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName implements gorm's tabler.
func (FormRecord) TableName() string { return "formflow_forms" }

// RevisionRecord is one historical save.
type RevisionRecord struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	FormID    int64  `gorm:"index;not null"`
	Body      []byte `gorm:"type:longblob;not null"`
	CreatedAt time.Time
}

// TableName implements gorm's tabler.
func (RevisionRecord) TableName() string { return "formflow_form_revisions" }

// BeforeCreate assigns a revision id when the caller did not.
func (r *RevisionRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Revision describes a stored revision without its body.
type Revision struct {
	ID        string
	FormID    int64
	CreatedAt time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithLogger routes store diagnostics to logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLogLevel sets the gorm query log level used by Open.
func WithLogLevel(level logger.LogLevel) Option {
	return func(s *Store) {
		s.logLevel = level
	}
}

// WithAutoMigrate runs Migrate as part of Open.
func WithAutoMigrate(enabled bool) Option {
	return func(s *Store) {
		s.autoMigrate = enabled
	}
}

// Store implements store.Store on top of gorm.
type Store struct {
	db          *gorm.DB
	logger      *zap.Logger
	logLevel    logger.LogLevel
	autoMigrate bool
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Lister = (*Store)(nil)
)

// Open connects to MySQL using dsn.
func Open(dsn string, options ...Option) (*Store, error) {
	s := newStore(nil, options...)

	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               normalized,
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(s.logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: database connection failed: %w", err)
	}
	s.db = db

	if s.autoMigrate {
		if err := s.Migrate(context.Background()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// New wraps an existing gorm handle.
func New(db *gorm.DB, options ...Option) *Store {
	return newStore(db, options...)
}

func newStore(db *gorm.DB, options ...Option) *Store {
	s := &Store{
		db:       db,
		logger:   zap.NewNop(),
		logLevel: logger.Warn,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// NormalizeDSN parses dsn and forces parseTime so timestamps scan into
// time.Time.
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("sqlstore: invalid dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// Migrate creates or updates the store tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&FormRecord{}, &RevisionRecord{}); err != nil {
		return fmt.Errorf("sqlstore: migration failed: %w", err)
	}
	return nil
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, id int64) (schema.Schema, bool, error) {
	if err := store.CheckID(id); err != nil {
		return schema.Schema{}, false, err
	}

	var rec FormRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return schema.Schema{}, false, nil
	}
	if err != nil {
		return schema.Schema{}, false, fmt.Errorf("sqlstore: load form %d: %w", id, err)
	}

	form, err := store.Unmarshal(rec.Body)
	if err != nil {
		return schema.Schema{}, false, fmt.Errorf("sqlstore: form %d revision %s: %w", id, rec.Revision, err)
	}
	return form, true, nil
}

// Save implements store.Store. The current row and the revision row are
// written in one transaction.
func (s *Store) Save(ctx context.Context, id int64, form schema.Schema) error {
	if err := store.CheckID(id); err != nil {
		return err
	}
	blob, err := store.Marshal(form)
	if err != nil {
		return err
	}

	revision := RevisionRecord{ID: uuid.New().String(), FormID: id, Body: blob}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, FormRecord{ID: id, Revision: revision.ID, Body: blob}).Error; err != nil {
			return err
		}
		return tx.Create(&revision).Error
	})
	if err != nil {
		return fmt.Errorf("sqlstore: save form %d: %w", id, err)
	}
	s.logger.Debug("form saved", zap.Int64("form_id", id), zap.String("revision", revision.ID), zap.Int("bytes", len(blob)))
	return nil
}

func upsert(tx *gorm.DB, rec FormRecord) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"revision", "body", "updated_at"}),
	}).Create(&rec)
}

// IDs implements store.Lister.
func (s *Store) IDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&FormRecord{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("sqlstore: list forms: %w", err)
	}
	return ids, nil
}

// Revisions lists the revisions of a form, newest first.
func (s *Store) Revisions(ctx context.Context, id int64) ([]Revision, error) {
	if err := store.CheckID(id); err != nil {
		return nil, err
	}
	var rows []RevisionRecord
	err := s.db.WithContext(ctx).
		Select("id", "form_id", "created_at").
		Where("form_id = ?", id).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list revisions for form %d: %w", id, err)
	}
	out := make([]Revision, 0, len(rows))
	for _, row := range rows {
		out = append(out, Revision{ID: row.ID, FormID: row.FormID, CreatedAt: row.CreatedAt})
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("sqlstore: resolve sql db: %w", err)
	}
	return sqlDB.Close()
}
