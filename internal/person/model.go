package person

import "time"

// Login stores one credential bundle exactly as supplied by the source dump,
// plus the derived strength score. The username acts as the natural key for
// idempotent ingestion; uniqueness is enforced by the pipeline, not the schema.
type Login struct {
	ID             uint   `gorm:"column:id;primaryKey;autoIncrement"`
	UUID           string `gorm:"column:uuid;size:36;not null"`
	Username       string `gorm:"column:username;size:190;not null;index"`
	Password       string `gorm:"column:password;size:190;not null"`
	Salt           string `gorm:"column:salt;size:64;not null"`
	MD5            string `gorm:"column:md5;size:32;not null"`
	SHA1           string `gorm:"column:sha1;size:40;not null"`
	SHA256         string `gorm:"column:sha256;size:64;not null"`
	PasswordSafety int    `gorm:"column:password_safety;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Login) TableName() string {
	return "logins"
}

// Location stores the flattened address, coordinate and timezone fields of
// one person record.
type Location struct {
	ID                  uint    `gorm:"column:id;primaryKey;autoIncrement"`
	StreetNumber        int     `gorm:"column:street_number;not null"`
	StreetName          string  `gorm:"column:street_name;size:190;not null"`
	City                string  `gorm:"column:city;size:190;not null;index"`
	State               string  `gorm:"column:state;size:190;not null"`
	Country             string  `gorm:"column:country;size:190;not null"`
	Postcode            int     `gorm:"column:postcode;not null"`
	Latitude            float64 `gorm:"column:latitude;not null"`
	Longitude           float64 `gorm:"column:longitude;not null"`
	TimezoneOffset      string  `gorm:"column:timezone_offset;size:16;not null"`
	TimezoneDescription string  `gorm:"column:timezone_description;size:190;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Location) TableName() string {
	return "locations"
}

// Person references exactly one Login and one Location; both rows must exist
// before the Person row is created. Dates are stored as naive timestamps in
// the form the source supplied them, without timezone conversion.
type Person struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Gender        string    `gorm:"column:gender;size:16;not null;index"`
	Title         string    `gorm:"column:title;size:32;not null"`
	FirstName     string    `gorm:"column:first_name;size:190;not null"`
	LastName      string    `gorm:"column:last_name;size:190;not null"`
	LocationID    uint      `gorm:"column:location_id;not null"`
	Location      Location  `gorm:"foreignKey:LocationID"`
	DateOfBirth   time.Time `gorm:"column:date_of_birth;not null;index"`
	Age           int       `gorm:"column:age;not null"`
	RegisterDate  time.Time `gorm:"column:register_date;not null"`
	RegisterAge   int       `gorm:"column:register_age;not null"`
	Email         string    `gorm:"column:email;size:320;not null"`
	LoginID       uint      `gorm:"column:login_id;not null"`
	Login         Login     `gorm:"foreignKey:LoginID"`
	Phone         string    `gorm:"column:phone;size:32;not null"`
	Cell          string    `gorm:"column:cell;size:32;not null"`
	IDName        string    `gorm:"column:id_name;size:64;not null"`
	IDValue       *string   `gorm:"column:id_value;size:64"`
	Nationality   string    `gorm:"column:nat;size:8;not null"`
	DayToBirthday int       `gorm:"column:day_to_birthday;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Person) TableName() string {
	return "persons"
}
