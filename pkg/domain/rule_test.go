package domain

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewRule_RequiredFields(t *testing.T) {
	cases := []struct {
		pathFrom, folderId, account, timeOfDay string
		expected                               error
	}{
		{"", "folder-id", "acc", "09:00", ErrPathFromBlank},
		{"   ", "folder-id", "acc", "09:00", ErrPathFromBlank},
		{"/data", "", "acc", "09:00", ErrFolderIdBlank},
		{"/data", "folder-id", " \t", "09:00", ErrAccountBlank},
		{"/data", "folder-id", "acc", "", ErrTimeBlank},
	}

	for _, c := range cases {
		_, err := NewRule(c.pathFrom, c.folderId, c.account, c.timeOfDay, "", "")
		assert.Equal(t, c.expected, errors.Cause(err))
	}
}

func TestNewRule_TimeFormat(t *testing.T) {
	_, err := NewRule("/data", "folder-id", "acc", "9 o'clock", "", "")
	assert.Equal(t, ErrTimeFormat, errors.Cause(err))

	_, err = NewRule("/data", "folder-id", "acc", "23:59", "", "")
	assert.Nil(t, err)
}

func TestNewRule_Weekday(t *testing.T) {
	for _, name := range []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"} {
		rule, err := NewRule("/data", "folder-id", "acc", "09:00", name, "")

		assert.Nil(t, err)
		assert.Equal(t, name, rule.Weekday)
	}

	// Any case is accepted, stored form is canonical
	rule, err := NewRule("/data", "folder-id", "acc", "09:00", "monday", "")
	assert.Nil(t, err)
	assert.Equal(t, "Monday", rule.Weekday)

	_, err = NewRule("/data", "folder-id", "acc", "09:00", "Funday", "")
	assert.Equal(t, ErrInvalidWeekday, errors.Cause(err))
}

func TestNewRule_DayOfMonth(t *testing.T) {
	for _, day := range []string{"0", "32", "-1", "first"} {
		_, err := NewRule("/data", "folder-id", "acc", "09:00", "", day)
		assert.Equal(t, ErrDayOfMonthRange, errors.Cause(err))
	}

	rule, err := NewRule("/data", "folder-id", "acc", "09:00", "", "1")
	assert.Nil(t, err)
	assert.Equal(t, 1, rule.DayOfMonth)

	rule, err = NewRule("/data", "folder-id", "acc", "09:00", "", "31")
	assert.Nil(t, err)
	assert.Equal(t, 31, rule.DayOfMonth)
}

func TestNewRule_RecurrenceIsExclusive(t *testing.T) {
	_, err := NewRule("/data", "folder-id", "acc", "09:00", "Monday", "15")
	assert.Equal(t, ErrRecurrenceConflict, errors.Cause(err))
}

func TestNewRule_EqualFieldsYieldEqualRules(t *testing.T) {
	a, err := NewRule("/data", "folder-id", "acc", "09:00", "Monday", "")
	assert.Nil(t, err)

	b, err := NewRule("/data", "folder-id", "acc", "09:00", "monday", "")
	assert.Nil(t, err)

	assert.Equal(t, a, b)
	assert.True(t, a == b)

	// Equal rules collapse to one map key
	set := map[Rule]struct{}{a: {}, b: {}}
	assert.Len(t, set, 1)
}

func TestRule_Record(t *testing.T) {
	rule, err := NewRule("/data", "folder-id", "acc", "09:00", "", "15")
	assert.Nil(t, err)
	assert.Equal(t, []string{"/data", "folder-id", "acc", "09:00", "", "15"}, rule.Record())

	rule, err = NewRule("/data", "folder-id", "acc", "09:00", "Friday", "")
	assert.Nil(t, err)
	assert.Equal(t, []string{"/data", "folder-id", "acc", "09:00", "Friday", ""}, rule.Record())
}

func TestRule_DueAt_Daily(t *testing.T) {
	rule, err := NewRule("/data", "folder-id", "acc", "09:00", "", "")
	assert.Nil(t, err)

	// Due for the whole target minute, on any day
	assert.True(t, rule.DueAt(time.Date(2019, 1, 1, 9, 0, 0, 0, time.UTC)))
	assert.True(t, rule.DueAt(time.Date(2019, 1, 1, 9, 0, 59, 0, time.UTC)))
	assert.True(t, rule.DueAt(time.Date(2019, 1, 2, 9, 0, 30, 0, time.UTC)))

	assert.False(t, rule.DueAt(time.Date(2019, 1, 1, 9, 1, 0, 0, time.UTC)))
	assert.False(t, rule.DueAt(time.Date(2019, 1, 1, 8, 59, 59, 0, time.UTC)))
}

func TestRule_DueAt_Weekday(t *testing.T) {
	rule, err := NewRule("/data", "folder-id", "acc", "09:00", "Monday", "")
	assert.Nil(t, err)

	monday := time.Date(2019, 1, 7, 9, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	assert.Equal(t, time.Monday, monday.Weekday())

	assert.True(t, rule.DueAt(monday))
	assert.False(t, rule.DueAt(tuesday))
	assert.False(t, rule.DueAt(monday.Add(time.Minute)))
}

func TestRule_DueAt_DayOfMonth(t *testing.T) {
	rule, err := NewRule("/data", "folder-id", "acc", "09:00", "", "15")
	assert.Nil(t, err)

	assert.True(t, rule.DueAt(time.Date(2019, 1, 15, 9, 0, 0, 0, time.UTC)))
	assert.True(t, rule.DueAt(time.Date(2019, 2, 15, 9, 0, 0, 0, time.UTC)))
	assert.False(t, rule.DueAt(time.Date(2019, 1, 16, 9, 0, 0, 0, time.UTC)))
}
