package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/RandomUserLabs/persondb/internal/database"
	"github.com/RandomUserLabs/persondb/internal/person"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

// ServiceError wraps a pipeline failure with an operation code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code exposes the machine-readable operation code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "ingest.service.new"
	opRun        = "ingest.run"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig describes the dependencies of the ingestion pipeline.
type ServiceConfig struct {
	Database *gorm.DB
	// Clock supplies "now" for the days-to-birthday derivation. Nil selects
	// time.Now.
	Clock func() time.Time
	// Scorer assigns password strength scores during normalization.
	Scorer person.Scorer
	// CellFromOwnValue switches the cell field to be cleaned from its own
	// raw value instead of being derived from phone.
	CellFromOwnValue bool
	Logger           *zap.Logger
}

// Service reads a JSON dump and upserts its person records into storage.
// It is the sole writer; reports never run concurrently with it within one
// process invocation.
type Service struct {
	db         *gorm.DB
	normalizer person.Normalizer
	logger     *zap.Logger
}

// NewService constructs the ingestion pipeline.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db: cfg.Database,
		normalizer: person.Normalizer{
			Clock:            cfg.Clock,
			Scorer:           cfg.Scorer,
			CellFromOwnValue: cfg.CellFromOwnValue,
		},
		logger: logger,
	}, nil
}

// Summary reports what happened to each record of one ingestion run.
type Summary struct {
	// Inserted counts records whose three rows were stored.
	Inserted int
	// Skipped counts records whose username already existed.
	Skipped int
	// Rejected counts malformed records that were reported and passed over.
	Rejected int
}

// sourceFile is the top-level shape of the dump: everything except the
// results array (info, pagination seed) is ignored.
type sourceFile struct {
	Results []person.RawRecord `json:"results"`
}

// Run ingests the dump at sourcePath. With dropExisting the three tables are
// destroyed and recreated first; otherwise missing tables are created and
// existing rows kept. Each accepted record inserts its Login, Location and
// Person rows in one transaction, in that order. Records whose username is
// already stored are skipped silently; malformed records are logged and
// counted without aborting the run.
func (s *Service) Run(ctx context.Context, sourcePath string, dropExisting bool) (Summary, error) {
	if dropExisting {
		if err := database.Reset(s.db, s.logger); err != nil {
			s.logError(opRun, "reset_failed", err)
			return Summary{}, newServiceError(opRun, "reset_failed", err)
		}
	} else {
		if err := database.Migrate(s.db); err != nil {
			s.logError(opRun, "migrate_failed", err)
			return Summary{}, newServiceError(opRun, "migrate_failed", err)
		}
	}

	file, err := os.Open(sourcePath)
	if err != nil {
		s.logError(opRun, "source_open_failed", err, zap.String("source", sourcePath))
		return Summary{}, newServiceError(opRun, "source_open_failed", err)
	}
	defer file.Close()

	var source sourceFile
	if err := json.NewDecoder(file).Decode(&source); err != nil {
		s.logError(opRun, "source_decode_failed", err, zap.String("source", sourcePath))
		return Summary{}, newServiceError(opRun, "source_decode_failed", err)
	}

	var summary Summary
	for index, raw := range source.Results {
		normalized, err := s.normalizer.Normalize(raw)
		if err != nil {
			summary.Rejected++
			s.logger.Warn("record rejected",
				zap.Int("index", index),
				zap.String("username", raw.Login.Username),
				zap.Error(err))
			continue
		}

		stored, err := s.storeRecord(ctx, normalized)
		if err != nil {
			s.logError(opRun, "insert_failed", err, zap.String("username", normalized.Login.Username))
			return summary, newServiceError(opRun, "insert_failed", err)
		}
		if stored {
			summary.Inserted++
		} else {
			summary.Skipped++
		}
	}

	s.logger.Info("ingestion finished",
		zap.String("source", sourcePath),
		zap.Int("inserted", summary.Inserted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("rejected", summary.Rejected))

	return summary, nil
}

// storeRecord inserts the three rows of one record atomically, unless a
// login with the same username already exists. Login and Location go first
// so that the Person row can reference them.
func (s *Service) storeRecord(ctx context.Context, normalized person.Normalized) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&person.Login{}).
		Where("username = ?", normalized.Login.Username).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		login := normalized.Login
		if err := tx.Create(&login).Error; err != nil {
			return err
		}
		location := normalized.Location
		if err := tx.Create(&location).Error; err != nil {
			return err
		}
		entity := normalized.Person
		entity.LoginID = login.ID
		entity.LocationID = location.ID
		return tx.Create(&entity).Error
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("ingestion error", attrs...)
}
