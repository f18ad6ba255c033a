package report

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/RandomUserLabs/persondb/internal/database"
	"github.com/RandomUserLabs/persondb/internal/person"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "persons.db")
	db, err := database.OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{Database: db, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("failed to build report service: %v", err)
	}
	return service
}

type fixturePerson struct {
	gender   string
	age      int
	city     string
	password string
	safety   int
	username string
	dob      time.Time
}

func seedPersons(t *testing.T, db *gorm.DB, fixtures []fixturePerson) {
	t.Helper()
	for index, fixture := range fixtures {
		login := person.Login{
			UUID:           fmt.Sprintf("uuid-%d", index),
			Username:       fixture.username,
			Password:       fixture.password,
			PasswordSafety: fixture.safety,
		}
		if err := db.Create(&login).Error; err != nil {
			t.Fatalf("failed to seed login: %v", err)
		}
		location := person.Location{City: fixture.city, Country: "Denmark"}
		if err := db.Create(&location).Error; err != nil {
			t.Fatalf("failed to seed location: %v", err)
		}
		entity := person.Person{
			Gender:       fixture.gender,
			FirstName:    fmt.Sprintf("First-%d", index),
			LastName:     fmt.Sprintf("Last-%d", index),
			LoginID:      login.ID,
			LocationID:   location.ID,
			DateOfBirth:  fixture.dob,
			Age:          fixture.age,
			RegisterDate: time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC),
		}
		if err := db.Create(&entity).Error; err != nil {
			t.Fatalf("failed to seed person: %v", err)
		}
	}
}

func defaultDOB(year int) time.Time {
	return time.Date(year, time.June, 15, 8, 30, 0, 0, time.UTC)
}

func TestGenderPercentage(t *testing.T) {
	db := newTestDatabase(t)
	fixtures := make([]fixturePerson, 0, 10)
	for i := 0; i < 3; i++ {
		fixtures = append(fixtures, fixturePerson{gender: "female", username: fmt.Sprintf("f%d", i), city: "Aarhus", password: "pw", dob: defaultDOB(1990)})
	}
	for i := 0; i < 7; i++ {
		fixtures = append(fixtures, fixturePerson{gender: "male", username: fmt.Sprintf("m%d", i), city: "Odense", password: "pw", dob: defaultDOB(1985)})
	}
	seedPersons(t, db, fixtures)
	service := newTestService(t, db)

	split, err := service.GenderPercentage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if split.FemalePct != 30.0 || split.MalePct != 70.0 {
		t.Fatalf("expected 30/70 split, got %+v", split)
	}
}

func TestGenderPercentageEmptyStore(t *testing.T) {
	service := newTestService(t, newTestDatabase(t))

	if _, err := service.GenderPercentage(context.Background()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestAverageAge(t *testing.T) {
	db := newTestDatabase(t)
	seedPersons(t, db, []fixturePerson{
		{gender: "female", age: 20, username: "f1", city: "Aarhus", password: "pw", dob: defaultDOB(2003)},
		{gender: "female", age: 40, username: "f2", city: "Aarhus", password: "pw", dob: defaultDOB(1983)},
		{gender: "male", age: 50, username: "m1", city: "Odense", password: "pw", dob: defaultDOB(1973)},
	})
	service := newTestService(t, db)

	tests := []struct {
		name     string
		filter   GenderFilter
		expected float64
	}{
		{name: "female", filter: GenderFemale, expected: 30.0},
		{name: "male", filter: GenderMale, expected: 50.0},
		{name: "all", filter: GenderAll, expected: (20.0 + 40.0 + 50.0) / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.AverageAge(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestAverageAgeEmptySet(t *testing.T) {
	db := newTestDatabase(t)
	seedPersons(t, db, []fixturePerson{
		{gender: "male", age: 50, username: "m1", city: "Odense", password: "pw", dob: defaultDOB(1973)},
	})
	service := newTestService(t, db)

	if _, err := service.AverageAge(context.Background(), GenderFemale); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestMostCommonCities(t *testing.T) {
	db := newTestDatabase(t)
	cities := []string{
		"Aarhus", "Aarhus", "Aarhus", "Aarhus",
		"Odense", "Odense", "Odense",
		"Esbjerg", "Esbjerg",
		"Randers",
	}
	fixtures := make([]fixturePerson, 0, len(cities))
	for index, city := range cities {
		fixtures = append(fixtures, fixturePerson{
			gender:   "female",
			username: fmt.Sprintf("user%d", index),
			city:     city,
			password: "pw",
			dob:      defaultDOB(1990),
		})
	}
	seedPersons(t, db, fixtures)
	service := newTestService(t, db)

	got, err := service.MostCommonCities(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []ValueCount{
		{Value: "Aarhus", Count: 4},
		{Value: "Odense", Count: 3},
		{Value: "Esbjerg", Count: 2},
	}
	if len(got) != len(expected) {
		t.Fatalf("expected %d cities, got %d", len(expected), len(got))
	}
	for index := range expected {
		if got[index] != expected[index] {
			t.Fatalf("unexpected entry at %d: %+v", index, got[index])
		}
	}
}

func TestMostCommonPasswords(t *testing.T) {
	db := newTestDatabase(t)
	passwords := []string{"hunter2", "hunter2", "password", "qwerty", "qwerty", "qwerty"}
	fixtures := make([]fixturePerson, 0, len(passwords))
	for index, password := range passwords {
		fixtures = append(fixtures, fixturePerson{
			gender:   "male",
			username: fmt.Sprintf("user%d", index),
			city:     "Aarhus",
			password: password,
			dob:      defaultDOB(1990),
		})
	}
	seedPersons(t, db, fixtures)
	service := newTestService(t, db)

	got, err := service.MostCommonPasswords(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 passwords, got %d", len(got))
	}
	if got[0].Value != "qwerty" || got[0].Count != 3 {
		t.Fatalf("unexpected top password %+v", got[0])
	}
	if got[1].Value != "hunter2" || got[1].Count != 2 {
		t.Fatalf("unexpected second password %+v", got[1])
	}
}

func TestMostCommonRejectsNonPositiveLimit(t *testing.T) {
	service := newTestService(t, newTestDatabase(t))

	if _, err := service.MostCommonCities(context.Background(), 0); err == nil {
		t.Fatalf("expected error for zero limit")
	}
}

func TestBornBetweenIsStrictlyExclusive(t *testing.T) {
	db := newTestDatabase(t)
	boundary := time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)
	seedPersons(t, db, []fixturePerson{
		{gender: "female", username: "inside-early", city: "Aarhus", password: "pw", dob: time.Date(1990, time.March, 2, 10, 0, 0, 0, time.UTC)},
		{gender: "male", username: "inside-late", city: "Aarhus", password: "pw", dob: time.Date(1990, time.November, 30, 0, 0, 0, 0, time.UTC)},
		{gender: "male", username: "on-boundary", city: "Aarhus", password: "pw", dob: boundary},
		{gender: "female", username: "outside", city: "Aarhus", password: "pw", dob: time.Date(1991, time.June, 1, 0, 0, 0, 0, time.UTC)},
	})
	service := newTestService(t, db)

	got, err := service.BornBetween(context.Background(), boundary, time.Date(1990, time.December, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := map[string]bool{"inside-early": true, "inside-late": true}
	if len(got) != len(expected) {
		t.Fatalf("expected %d usernames, got %v", len(expected), got)
	}
	for _, username := range got {
		if !expected[username] {
			t.Fatalf("unexpected username %q in %v", username, got)
		}
	}
}

func TestSafestPassword(t *testing.T) {
	db := newTestDatabase(t)
	seedPersons(t, db, []fixturePerson{
		{gender: "female", username: "weak", city: "Aarhus", password: "abc", safety: 1, dob: defaultDOB(1990)},
		{gender: "male", username: "strong", city: "Aarhus", password: "Abcdefg1!", safety: 13, dob: defaultDOB(1990)},
		{gender: "male", username: "middle", city: "Aarhus", password: "abcdefgh", safety: 6, dob: defaultDOB(1990)},
	})
	service := newTestService(t, db)

	got, err := service.SafestPassword(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Password != "Abcdefg1!" || got.Score != 13 {
		t.Fatalf("unexpected safest password %+v", got)
	}
}

func TestSafestPasswordEmptyStore(t *testing.T) {
	service := newTestService(t, newTestDatabase(t))

	if _, err := service.SafestPassword(context.Background()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestListAllJoinsLocationAndLogin(t *testing.T) {
	db := newTestDatabase(t)
	seedPersons(t, db, []fixturePerson{
		{gender: "female", username: "joined", city: "Aarhus", password: "hunter2", safety: 6, dob: defaultDOB(1990)},
	})
	service := newTestService(t, db)

	persons, err := service.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(persons) != 1 {
		t.Fatalf("expected a single person, got %d", len(persons))
	}
	if persons[0].Login.Username != "joined" {
		t.Fatalf("expected login to be joined, got %+v", persons[0].Login)
	}
	if persons[0].Location.City != "Aarhus" {
		t.Fatalf("expected location to be joined, got %+v", persons[0].Location)
	}
}
