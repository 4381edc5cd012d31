// Package model holds the persisted salon entities. IDs are client-supplied
// UUIDs; audit timestamps are set by the store and never by callers.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field length limits shared by the schema, the request DTOs and the CSV
// constraint rules.
const (
	NameLengthLimit  = 50
	EmailLengthLimit = 254
	PhoneLengthLimit = 15
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// ParseGender matches case-insensitively, uppercasing before comparison.
func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToUpper(s)); g {
	case GenderMale, GenderFemale:
		return g, nil
	default:
		return "", fmt.Errorf("invalid gender %q", s)
	}
}

func (g *Gender) UnmarshalText(text []byte) error {
	parsed, err := ParseGender(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Client owns its appointments through appointment.client_id; deleting a
// client cascades in the store.
type Client struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Gender    Gender
	Banned    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID        uuid.UUID
	ClientID  uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Purchase struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	Name          string
	Price         decimal.Decimal
	LoyaltyPoints int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Service struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	Name          string
	Price         decimal.Decimal
	LoyaltyPoints int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
