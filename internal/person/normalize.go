package person

import (
	"fmt"
	"time"
)

// rawTimeLayout matches the source's ISO-8601 timestamps with fractional
// seconds and a literal trailing Z, e.g. 1993-07-20T09:44:18.674Z. Parsed
// values are kept as supplied, without timezone conversion.
const rawTimeLayout = "2006-01-02T15:04:05.999999999Z"

// Normalized holds the three entity payloads produced from one raw record.
// Foreign-key columns of Person remain unset until the rows are inserted.
type Normalized struct {
	Login    Login
	Location Location
	Person   Person
}

// Normalizer flattens raw records into storable entities. The zero value
// uses the wall clock, canonical scoring and the source-faithful cell
// derivation.
type Normalizer struct {
	// Clock supplies "now" for the days-to-birthday derivation. Nil selects
	// time.Now.
	Clock func() time.Time
	// Scorer assigns the password strength score.
	Scorer Scorer
	// CellFromOwnValue cleans the cell number from the record's own cell
	// field. The default reproduces the historical behavior of deriving
	// cell from phone, which existing databases depend on byte-for-byte.
	CellFromOwnValue bool
}

// Normalize validates one raw record and flattens it into the three entity
// payloads, applying the field transforms: digit-only phone and cell, parsed
// naive timestamps, derived days-to-birthday and password strength.
func (n Normalizer) Normalize(raw RawRecord) (Normalized, error) {
	if err := raw.Validate(); err != nil {
		return Normalized{}, err
	}

	dateOfBirth, err := time.Parse(rawTimeLayout, raw.DOB.Date)
	if err != nil {
		return Normalized{}, fmt.Errorf("%w: malformed dob.date %q", ErrInvalidRecord, raw.DOB.Date)
	}
	registerDate, err := time.Parse(rawTimeLayout, raw.Registered.Date)
	if err != nil {
		return Normalized{}, fmt.Errorf("%w: malformed registered.date %q", ErrInvalidRecord, raw.Registered.Date)
	}

	clock := n.Clock
	if clock == nil {
		clock = time.Now
	}

	phone := digitsOnly(raw.Phone)
	cell := phone
	if n.CellFromOwnValue {
		cell = digitsOnly(raw.Cell)
	}

	login := Login{
		UUID:           raw.Login.UUID,
		Username:       raw.Login.Username,
		Password:       raw.Login.Password,
		Salt:           raw.Login.Salt,
		MD5:            raw.Login.MD5,
		SHA1:           raw.Login.SHA1,
		SHA256:         raw.Login.SHA256,
		PasswordSafety: n.Scorer.Score(raw.Login.Password),
	}

	location := Location{
		StreetNumber:        int(raw.Location.Street.Number),
		StreetName:          raw.Location.Street.Name,
		City:                raw.Location.City,
		State:               raw.Location.State,
		Country:             raw.Location.Country,
		Postcode:            int(raw.Location.Postcode),
		Latitude:            float64(raw.Location.Coordinates.Latitude),
		Longitude:           float64(raw.Location.Coordinates.Longitude),
		TimezoneOffset:      raw.Location.Timezone.Offset,
		TimezoneDescription: raw.Location.Timezone.Description,
	}

	entity := Person{
		Gender:        raw.Gender,
		Title:         raw.Name.Title,
		FirstName:     raw.Name.First,
		LastName:      raw.Name.Last,
		DateOfBirth:   dateOfBirth,
		Age:           raw.DOB.Age,
		RegisterDate:  registerDate,
		RegisterAge:   raw.Registered.Age,
		Email:         raw.Email,
		Phone:         phone,
		Cell:          cell,
		IDName:        raw.Document.Name,
		IDValue:       raw.Document.Value,
		Nationality:   raw.Nationality,
		DayToBirthday: DaysToBirthday(dateOfBirth, clock()),
	}

	return Normalized{Login: login, Location: location, Person: entity}, nil
}
