package validation

import (
	"testing"
	"time"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/csv"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClientRecord() *csv.ClientRecord {
	return &csv.ClientRecord{
		ID:        uuid.New(),
		FirstName: "Dori",
		LastName:  "Dietrich",
		Email:     "patria@hagenes.net",
		Phone:     "(272) 301-6356",
		Gender:    model.GenderMale,
		Banned:    false,
	}
}

func TestValidateValidRecords(t *testing.T) {
	va := New()

	assert.Nil(t, va.Validate(validClientRecord()))
	assert.Nil(t, va.Validate(&csv.AppointmentRecord{
		ID:        uuid.New(),
		ClientID:  uuid.New(),
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	}))
	assert.Nil(t, va.Validate(&csv.PurchaseRecord{
		ID:            uuid.New(),
		AppointmentID: uuid.New(),
		Name:          "Shampoo",
		Price:         decimal.RequireFromString("19.99"),
		LoyaltyPoints: 0,
	}))
}

func TestValidateReportsEveryViolatedField(t *testing.T) {
	va := New()

	rec := validClientRecord()
	rec.FirstName = "   "
	rec.Email = "not-an-email"
	rec.Phone = ""

	fields := va.Validate(rec)
	require.Len(t, fields, 3)

	// Sorted ascending by field name.
	assert.Equal(t, "email", fields[0].FieldName)
	assert.Equal(t, "must be a well-formed email address", fields[0].FieldError)
	assert.Equal(t, "firstName", fields[1].FieldName)
	assert.Equal(t, "must not be blank", fields[1].FieldError)
	assert.Equal(t, "phone", fields[2].FieldName)
	assert.Equal(t, "must not be blank", fields[2].FieldError)
}

func TestValidateOneEntryPerField(t *testing.T) {
	va := New()

	// Blank email violates both notblank and email; only the first declared
	// rule is reported.
	rec := validClientRecord()
	rec.Email = " "

	fields := va.Validate(rec)
	require.Len(t, fields, 1)
	assert.Equal(t, "email", fields[0].FieldName)
	assert.Equal(t, "must not be blank", fields[0].FieldError)
}

func TestValidateLengthLimits(t *testing.T) {
	va := New()

	long := make([]byte, model.NameLengthLimit+1)
	for i := range long {
		long[i] = 'a'
	}

	rec := validClientRecord()
	rec.LastName = string(long)

	fields := va.Validate(rec)
	require.Len(t, fields, 1)
	assert.Equal(t, "lastName", fields[0].FieldName)
	assert.Equal(t, "size must be between 0 and 50", fields[0].FieldError)
}

func TestValidateMissingRequired(t *testing.T) {
	va := New()

	fields := va.Validate(&csv.AppointmentRecord{
		ID:       uuid.New(),
		ClientID: uuid.New(),
	})
	require.Len(t, fields, 2)
	assert.Equal(t, "endTime", fields[0].FieldName)
	assert.Equal(t, "must not be null", fields[0].FieldError)
	assert.Equal(t, "startTime", fields[1].FieldName)
	assert.Equal(t, "must not be null", fields[1].FieldError)
}

func TestValidateMoneyRules(t *testing.T) {
	va := New()

	rec := &csv.ServiceRecord{
		ID:            uuid.New(),
		AppointmentID: uuid.New(),
		Name:          "Cut",
		Price:         decimal.Zero,
		LoyaltyPoints: -1,
	}

	fields := va.Validate(rec)
	require.Len(t, fields, 2)
	assert.Equal(t, "loyaltyPoints", fields[0].FieldName)
	assert.Equal(t, "must be greater than or equal to 0", fields[0].FieldError)
	assert.Equal(t, "price", fields[1].FieldName)
	assert.Equal(t, "must be greater than 0", fields[1].FieldError)

	rec.Price = decimal.RequireFromString("-3.50")
	rec.LoyaltyPoints = 10
	fields = va.Validate(rec)
	require.Len(t, fields, 1)
	assert.Equal(t, "price", fields[0].FieldName)
}
