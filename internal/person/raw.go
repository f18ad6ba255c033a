package person

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidRecord indicates a raw record is missing a required field or
// carries a value that cannot be interpreted. The wrapped message names the
// offending field.
var ErrInvalidRecord = errors.New("person: invalid record")

// FlexInt decodes a JSON value that arrives either as a bare number or as a
// quoted string, as randomuser postcodes do across locales. Alphanumeric
// postcodes are reduced to their digits.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (v *FlexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*v = 0
		return nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		parsed, err = strconv.Atoi(digitsOnly(raw))
		if err != nil {
			*v = 0
			return nil
		}
	}
	*v = FlexInt(parsed)
	return nil
}

// FlexFloat decodes a JSON value that arrives either as a bare number or as
// a quoted string, as randomuser coordinates do.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (v *FlexFloat) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*v = 0
		return nil
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed float %q", ErrInvalidRecord, raw)
	}
	*v = FlexFloat(parsed)
	return nil
}

// RawRecord mirrors one nested person entry of the source dump. The picture
// field is never decoded.
type RawRecord struct {
	Gender      string      `json:"gender"`
	Name        RawName     `json:"name"`
	Location    RawLocation `json:"location"`
	Email       string      `json:"email"`
	Login       RawLogin    `json:"login"`
	DOB         RawDated    `json:"dob"`
	Registered  RawDated    `json:"registered"`
	Phone       string      `json:"phone"`
	Cell        string      `json:"cell"`
	Document    RawDocument `json:"id"`
	Nationality string      `json:"nat"`
}

// RawName carries the nested name object.
type RawName struct {
	Title string `json:"title"`
	First string `json:"first"`
	Last  string `json:"last"`
}

// RawLocation carries the nested location object.
type RawLocation struct {
	Street      RawStreet      `json:"street"`
	City        string         `json:"city"`
	State       string         `json:"state"`
	Country     string         `json:"country"`
	Postcode    FlexInt        `json:"postcode"`
	Coordinates RawCoordinates `json:"coordinates"`
	Timezone    RawTimezone    `json:"timezone"`
}

// RawStreet carries the nested street object.
type RawStreet struct {
	Number FlexInt `json:"number"`
	Name   string  `json:"name"`
}

// RawCoordinates carries the nested coordinates object.
type RawCoordinates struct {
	Latitude  FlexFloat `json:"latitude"`
	Longitude FlexFloat `json:"longitude"`
}

// RawTimezone carries the nested timezone object.
type RawTimezone struct {
	Offset      string `json:"offset"`
	Description string `json:"description"`
}

// RawLogin carries the nested login object: the credential bundle exactly as
// the source supplies it, digests included.
type RawLogin struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
	Password string `json:"password"`
	Salt     string `json:"salt"`
	MD5      string `json:"md5"`
	SHA1     string `json:"sha1"`
	SHA256   string `json:"sha256"`
}

// RawDated carries a date/age pair as used by the dob and registered objects.
type RawDated struct {
	Date string `json:"date"`
	Age  int    `json:"age"`
}

// RawDocument carries the identity-document name/value pair. The value is
// null for nationalities without a document number.
type RawDocument struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// Validate checks the required fields once at the ingestion boundary so that
// later processing never fails on a missing nested value. It returns an
// error wrapping ErrInvalidRecord that names the first offending field.
func (r RawRecord) Validate() error {
	if strings.TrimSpace(r.Login.Username) == "" {
		return fmt.Errorf("%w: missing login.username", ErrInvalidRecord)
	}
	if r.Login.Password == "" {
		return fmt.Errorf("%w: missing login.password", ErrInvalidRecord)
	}
	if _, err := uuid.Parse(r.Login.UUID); err != nil {
		return fmt.Errorf("%w: malformed login.uuid %q", ErrInvalidRecord, r.Login.UUID)
	}
	if r.Gender == "" {
		return fmt.Errorf("%w: missing gender", ErrInvalidRecord)
	}
	if r.Name.First == "" || r.Name.Last == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRecord)
	}
	if r.DOB.Date == "" {
		return fmt.Errorf("%w: missing dob.date", ErrInvalidRecord)
	}
	if r.Registered.Date == "" {
		return fmt.Errorf("%w: missing registered.date", ErrInvalidRecord)
	}
	return nil
}

func digitsOnly(value string) string {
	var builder strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
