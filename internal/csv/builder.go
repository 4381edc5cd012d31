package csv

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimeLayout is the fixed appointment timestamp wire format, a numeric
// UTC-offset suffix after the seconds, e.g. "2023-08-21 00:05:00 +00".
const TimeLayout = "2006-01-02 15:04:05 -07"

// Candidate records: parsed but not yet constraint-validated rows. Field
// names in the `field` tag are the names violation reports use. Validation
// tags are evaluated in order and report the first violated rule per field.

type ClientRecord struct {
	ID        uuid.UUID    `field:"id" validate:"required"`
	FirstName string       `field:"firstName" validate:"notblank,max=50"`
	LastName  string       `field:"lastName" validate:"notblank,max=50"`
	Email     string       `field:"email" validate:"notblank,email,max=254"`
	Phone     string       `field:"phone" validate:"notblank,max=15"`
	Gender    model.Gender `field:"gender" validate:"required"`
	Banned    bool         `field:"banned"`
}

type AppointmentRecord struct {
	ID        uuid.UUID `field:"id" validate:"required"`
	ClientID  uuid.UUID `field:"clientId" validate:"required"`
	StartTime time.Time `field:"startTime" validate:"required"`
	EndTime   time.Time `field:"endTime" validate:"required"`
}

type PurchaseRecord struct {
	ID            uuid.UUID       `field:"id" validate:"required"`
	AppointmentID uuid.UUID       `field:"appointmentId" validate:"required"`
	Name          string          `field:"name" validate:"notblank,max=50"`
	Price         decimal.Decimal `field:"price" validate:"positive"`
	LoyaltyPoints int             `field:"loyaltyPoints" validate:"positiveorzero"`
}

type ServiceRecord struct {
	ID            uuid.UUID       `field:"id" validate:"required"`
	AppointmentID uuid.UUID       `field:"appointmentId" validate:"required"`
	Name          string          `field:"name" validate:"notblank,max=50"`
	Price         decimal.Decimal `field:"price" validate:"positive"`
	LoyaltyPoints int             `field:"loyaltyPoints" validate:"positiveorzero"`
}

// Record is a tagged union over the four record kinds: exactly the variant
// matching Kind is non-nil.
type Record struct {
	Kind        Kind
	Client      *ClientRecord
	Appointment *AppointmentRecord
	Purchase    *PurchaseRecord
	Service     *ServiceRecord
}

// Candidate returns the kind-specific candidate struct, for constraint
// validation.
func (r Record) Candidate() any {
	switch r.Kind {
	case KindClient:
		return r.Client
	case KindAppointment:
		return r.Appointment
	case KindPurchase:
		return r.Purchase
	case KindService:
		return r.Service
	}
	return nil
}

type builderFunc func(fields []string, line int) (Record, error)

var builders = map[Kind]builderFunc{
	KindClient:      buildClient,
	KindAppointment: buildAppointment,
	KindPurchase:    buildPurchase,
	KindService:     buildService,
}

// Build converts a row that already passed ValidateRow into a candidate
// record. Any parse failure aborts the request as a malformed-field error
// naming the offending field.
func Build(kind Kind, fields []string, line int) (Record, error) {
	return builders[kind](fields, line)
}

func buildClient(fields []string, line int) (Record, error) {
	id, err := parseUUID("id", fields[0], line)
	if err != nil {
		return Record{}, err
	}
	gender, err := parseGender(fields[5], line)
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: KindClient, Client: &ClientRecord{
		ID:        id,
		FirstName: fields[1],
		LastName:  fields[2],
		Email:     fields[3],
		Phone:     fields[4],
		Gender:    gender,
		Banned:    parseBanned(fields[6]),
	}}, nil
}

func buildAppointment(fields []string, line int) (Record, error) {
	id, err := parseUUID("id", fields[0], line)
	if err != nil {
		return Record{}, err
	}
	clientID, err := parseUUID("clientId", fields[1], line)
	if err != nil {
		return Record{}, err
	}
	start, err := parseTime("startTime", fields[2], line)
	if err != nil {
		return Record{}, err
	}
	end, err := parseTime("endTime", fields[3], line)
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: KindAppointment, Appointment: &AppointmentRecord{
		ID:        id,
		ClientID:  clientID,
		StartTime: start,
		EndTime:   end,
	}}, nil
}

func buildPurchase(fields []string, line int) (Record, error) {
	id, appointmentID, name, price, points, err := parseSaleFields(fields, line)
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: KindPurchase, Purchase: &PurchaseRecord{
		ID:            id,
		AppointmentID: appointmentID,
		Name:          name,
		Price:         price,
		LoyaltyPoints: points,
	}}, nil
}

func buildService(fields []string, line int) (Record, error) {
	id, appointmentID, name, price, points, err := parseSaleFields(fields, line)
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: KindService, Service: &ServiceRecord{
		ID:            id,
		AppointmentID: appointmentID,
		Name:          name,
		Price:         price,
		LoyaltyPoints: points,
	}}, nil
}

// Purchase and service rows share the same column layout.
func parseSaleFields(fields []string, line int) (id, appointmentID uuid.UUID, name string, price decimal.Decimal, points int, err error) {
	if id, err = parseUUID("id", fields[0], line); err != nil {
		return
	}
	if appointmentID, err = parseUUID("appointmentId", fields[1], line); err != nil {
		return
	}
	name = fields[2]
	if price, err = parseDecimal("price", fields[3], line); err != nil {
		return
	}
	points, err = parseInt("loyaltyPoints", fields[4], line)
	return
}

func parseUUID(field, value string, line int) (uuid.UUID, error) {
	// Canonical dashed form only; uuid.Parse alone also accepts urn: and
	// braced variants.
	if len(value) != 36 {
		return uuid.Nil, malformed(field, value, "uuid", line)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, malformed(field, value, "uuid", line)
	}
	return id, nil
}

func parseTime(field, value string, line int) (time.Time, error) {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return time.Time{}, malformed(field, value, "timestamp", line)
	}
	return t, nil
}

func parseDecimal(field, value string, line int) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, malformed(field, value, "decimal", line)
	}
	return d, nil
}

func parseInt(field, value string, line int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, malformed(field, value, "integer", line)
	}
	return n, nil
}

func parseGender(value string, line int) (model.Gender, error) {
	g, err := model.ParseGender(value)
	if err != nil {
		return "", malformed("gender", value, "gender", line)
	}
	return g, nil
}

// parseBanned is lenient: anything that is not "true" (case-insensitive)
// is false.
func parseBanned(value string) bool {
	return strings.EqualFold(value, "true")
}

func malformed(field, value, kind string, line int) error {
	return apperror.MalformedField(field,
		fmt.Sprintf("line %d: cannot parse %q as a %s", line, value, kind))
}
