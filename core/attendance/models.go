package attendance

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/teas/core"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusLeave   Status = "leave"
)

var Statuses = []Status{StatusPresent, StatusAbsent, StatusLate, StatusLeave}

func (s Status) IsValid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Attendance is the record of one employee for one day.
type Attendance struct {
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employee"`
	EmployeeName string          `json:"employee_name"`
	Date         core.Date       `json:"date"`
	Status       Status          `json:"status"`
	CheckInTime  *core.TimeOfDay `json:"check_in_time"`
	CheckOutTime *core.TimeOfDay `json:"check_out_time"`
	Latitude     *float64        `json:"latitude"`
	Longitude    *float64        `json:"longitude"`
	CreatedAt    time.Time       `json:"created_at"` // UTC
	UpdatedAt    time.Time       `json:"-"`          // UTC
}

// MarkAttendance is the create-or-update request for the record of (Employee, Date).
// When the record already exists, only the fields sent in the request overwrite it.
// A field sent as null clears the stored value, except status which cannot be null.
type MarkAttendance struct {
	Employee    string   `json:"employee" validate:"required"`
	Date        string   `json:"date" validate:"required"`
	Status      *string  `json:"status" validate:"omitempty,oneof=present absent late leave"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	CheckInTime *string  `json:"check_in_time"`

	date        core.Date
	checkInTime *core.TimeOfDay
	sent        map[string]bool // JSON keys present in the request; nil when not decoded from JSON
}

func (ma *MarkAttendance) UnmarshalJSON(b []byte) error {
	type plain MarkAttendance
	if err := json.Unmarshal(b, (*plain)(ma)); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	ma.sent = make(map[string]bool, len(fields))
	for key := range fields {
		ma.sent[strings.ToLower(key)] = true
	}
	return nil
}

// Provided reports whether field must overwrite the stored record.
// Requests built in code provide their non-nil fields.
func (ma MarkAttendance) Provided(field string) bool {
	if ma.sent != nil {
		return ma.sent[field]
	}
	switch field {
	case "check_in_time":
		return ma.CheckInTime != nil
	case "latitude":
		return ma.Latitude != nil
	case "longitude":
		return ma.Longitude != nil
	}
	return false
}

// Validate checks the request and parses its date and time fields.
func (ma *MarkAttendance) Validate(validate *validator.Validate) error {
	ma.Employee = core.CleanString(ma.Employee)
	ma.Date = core.CleanString(ma.Date)
	if err := validate.Struct(ma); err != nil {
		return err
	}

	date, err := core.ParseDate(ma.Date)
	if err != nil {
		return core.NewFieldError("date", err)
	}
	ma.date = date

	if ma.CheckInTime != nil && *ma.CheckInTime != "" {
		tod, err := core.ParseTimeOfDay(*ma.CheckInTime)
		if err != nil {
			return core.NewFieldError("check_in_time", err)
		}
		ma.checkInTime = &tod
	}
	if ma.Latitude != nil {
		lat := core.RoundCoordinate(*ma.Latitude)
		ma.Latitude = &lat
	}
	if ma.Longitude != nil {
		lon := core.RoundCoordinate(*ma.Longitude)
		ma.Longitude = &lon
	}
	return nil
}

// ParsedDate is the day parsed by Validate.
func (ma MarkAttendance) ParsedDate() core.Date { return ma.date }

// Location is a geolocated self check-in.
type Location struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

func (loc *Location) Validate(validate *validator.Validate) error {
	if err := validate.Struct(loc); err != nil {
		return err
	}
	if loc.Latitude != nil {
		lat := core.RoundCoordinate(*loc.Latitude)
		loc.Latitude = &lat
	}
	if loc.Longitude != nil {
		lon := core.RoundCoordinate(*loc.Longitude)
		loc.Longitude = &lon
	}
	return nil
}

type QueryFilter struct {
	Date       *core.Date
	DateFrom   *core.Date
	DateTo     *core.Date
	EmployeeID string
	UserID     string
	Status     Status
}

// OrderingFields are the fields attendances can be ordered by.
var OrderingFields = []string{"date", "status", "check_in_time", "check_out_time", "created_at"}
