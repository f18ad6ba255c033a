package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RandomUserLabs/persondb/internal/person"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNoData indicates the store holds no rows satisfying the query, for
	// queries whose result is undefined over an empty set.
	ErrNoData = errors.New("report: no data")

	errMissingDatabase = errors.New("database handle is required")
	errInvalidLimit    = errors.New("limit must be positive")
	noOpLogger         = zap.NewNop()
)

// GenderFilter selects the population for age averaging.
type GenderFilter string

const (
	// GenderFemale restricts a query to female persons.
	GenderFemale GenderFilter = "female"
	// GenderMale restricts a query to male persons.
	GenderMale GenderFilter = "male"
	// GenderAll ignores gender.
	GenderAll GenderFilter = "all"
)

// ServiceConfig describes the dependencies of the report engine.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service answers the fixed set of descriptive queries over current storage
// contents. Every operation is read-only.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the report engine.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, logger: logger}, nil
}

// GenderSplit carries the percentage of each gender over the whole store.
type GenderSplit struct {
	FemalePct float64
	MalePct   float64
}

// GenderPercentage computes the female and male share of all persons.
// Returns ErrNoData when the store is empty.
func (s *Service) GenderPercentage(ctx context.Context) (GenderSplit, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&person.Person{}).Count(&total).Error; err != nil {
		return GenderSplit{}, err
	}
	if total == 0 {
		return GenderSplit{}, ErrNoData
	}

	var female, male int64
	if err := s.db.WithContext(ctx).Model(&person.Person{}).Where("gender = ?", "female").Count(&female).Error; err != nil {
		return GenderSplit{}, err
	}
	if err := s.db.WithContext(ctx).Model(&person.Person{}).Where("gender = ?", "male").Count(&male).Error; err != nil {
		return GenderSplit{}, err
	}

	return GenderSplit{
		FemalePct: 100.0 * float64(female) / float64(total),
		MalePct:   100.0 * float64(male) / float64(total),
	}, nil
}

// AverageAge computes the arithmetic mean of the age column over the
// filtered population. Returns ErrNoData when the filtered set is empty.
func (s *Service) AverageAge(ctx context.Context, filter GenderFilter) (float64, error) {
	query := s.db.WithContext(ctx).Model(&person.Person{})
	if filter == GenderFemale || filter == GenderMale {
		query = query.Where("gender = ?", string(filter))
	}

	var average sql.NullFloat64
	if err := query.Select("AVG(age)").Scan(&average).Error; err != nil {
		return 0, err
	}
	if !average.Valid {
		return 0, ErrNoData
	}
	return average.Float64, nil
}

// ValueCount pairs a distinct value with its occurrence count.
type ValueCount struct {
	Value string
	Count int64
}

// MostCommonCities returns up to n cities ordered by occurrence count
// descending. Ties resolve in storage order.
func (s *Service) MostCommonCities(ctx context.Context, n int) ([]ValueCount, error) {
	return s.mostCommon(ctx, &person.Location{}, "city", n)
}

// MostCommonPasswords returns up to n passwords ordered by occurrence count
// descending. Ties resolve in storage order.
func (s *Service) MostCommonPasswords(ctx context.Context, n int) ([]ValueCount, error) {
	return s.mostCommon(ctx, &person.Login{}, "password", n)
}

func (s *Service) mostCommon(ctx context.Context, model any, column string, n int) ([]ValueCount, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", errInvalidLimit, n)
	}

	var results []ValueCount
	err := s.db.WithContext(ctx).
		Model(model).
		Select(fmt.Sprintf("%s AS value, COUNT(*) AS count", column)).
		Group(column).
		Order("count DESC").
		Limit(n).
		Scan(&results).Error
	if err != nil {
		s.logger.Error("report query failed", zap.String("column", column), zap.Error(err))
		return nil, err
	}
	return results, nil
}

// BornBetween returns the usernames of persons whose date of birth lies
// strictly between start and end, both ends exclusive, in storage order.
func (s *Service) BornBetween(ctx context.Context, start, end time.Time) ([]string, error) {
	var usernames []string
	err := s.db.WithContext(ctx).
		Model(&person.Person{}).
		Joins("JOIN logins ON logins.id = persons.login_id").
		Where("persons.date_of_birth > ? AND persons.date_of_birth < ?", start, end).
		Pluck("logins.username", &usernames).Error
	if err != nil {
		s.logger.Error("report query failed", zap.String("query", "born_between"), zap.Error(err))
		return nil, err
	}
	return usernames, nil
}

// PasswordStrength pairs a stored password with its strength score.
type PasswordStrength struct {
	Password string
	Score    int
}

// SafestPassword returns the login row with the highest strength score. Ties
// resolve to an arbitrary single row. Returns ErrNoData on an empty store.
func (s *Service) SafestPassword(ctx context.Context) (PasswordStrength, error) {
	var login person.Login
	err := s.db.WithContext(ctx).
		Order("password_safety DESC").
		Limit(1).
		Take(&login).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PasswordStrength{}, ErrNoData
	}
	if err != nil {
		return PasswordStrength{}, err
	}
	return PasswordStrength{Password: login.Password, Score: login.PasswordSafety}, nil
}

// ListAll returns every person joined with its location and login, in
// storage order.
func (s *Service) ListAll(ctx context.Context) ([]person.Person, error) {
	var persons []person.Person
	err := s.db.WithContext(ctx).
		Preload("Location").
		Preload("Login").
		Find(&persons).Error
	if err != nil {
		return nil, err
	}
	return persons, nil
}
