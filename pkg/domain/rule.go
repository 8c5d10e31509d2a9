package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrPathFromBlank      = errors.New("rule: path from is blank")
	ErrFolderIdBlank      = errors.New("rule: folder id is blank")
	ErrAccountBlank       = errors.New("rule: account is blank")
	ErrTimeBlank          = errors.New("rule: time is blank")
	ErrTimeFormat         = errors.New("rule: time must be in HH:MM form")
	ErrInvalidWeekday     = errors.New("rule: weekday is invalid")
	ErrDayOfMonthRange    = errors.New("rule: day of month must be in 1..31")
	ErrRecurrenceConflict = errors.New("rule: weekday and day of month are mutually exclusive")
)

const (
	minDayOfMonth = 1
	maxDayOfMonth = 31
)

// Rule describes one scheduled backup action: upload the top-level files of
// PathFrom into the remote folder FolderId at Time every day, optionally
// restricted to a single weekday or day of month.
//
// Rules are immutable after construction and comparable: two rules are equal
// iff all six fields are equal, which is what the store's deduplication
// relies on.
type Rule struct {
	PathFrom   string
	FolderId   string
	Account    string
	Time       string
	Weekday    string // canonical day name, empty when unset
	DayOfMonth int    // 1..31, zero when unset
}

// NewRule validates and constructs a Rule. Weekday and dayOfMonth arrive in
// their record form: blank means unset, weekday may be given in any case and
// is canonicalized ("monday" -> "Monday"), dayOfMonth must be an integer in
// 1..31.
func NewRule(pathFrom, folderID, account, timeOfDay, weekday, dayOfMonth string) (Rule, error) {
	var r Rule

	if strings.TrimSpace(pathFrom) == "" {
		return r, ErrPathFromBlank
	}
	if strings.TrimSpace(folderID) == "" {
		return r, ErrFolderIdBlank
	}
	if strings.TrimSpace(account) == "" {
		return r, ErrAccountBlank
	}
	if strings.TrimSpace(timeOfDay) == "" {
		return r, ErrTimeBlank
	}

	// Strict HH:MM, so that the value can ever match a formatted clock
	// reading ("9:00" parses but never fires)
	tm, err := time.Parse("15:04", timeOfDay)
	if err != nil || tm.Format("15:04") != timeOfDay {
		return r, errors.Wrapf(ErrTimeFormat, "'%s'", timeOfDay)
	}

	weekday = strings.TrimSpace(weekday)
	dayOfMonth = strings.TrimSpace(dayOfMonth)

	if weekday != "" && dayOfMonth != "" {
		return r, ErrRecurrenceConflict
	}

	if weekday != "" {
		canonical, err := canonicalWeekday(weekday)
		if err != nil {
			return r, err
		}
		weekday = canonical
	}

	day := 0
	if dayOfMonth != "" {
		parsed, err := strconv.Atoi(dayOfMonth)
		if err != nil || parsed < minDayOfMonth || parsed > maxDayOfMonth {
			return r, errors.Wrapf(ErrDayOfMonthRange, "'%s'", dayOfMonth)
		}
		day = parsed
	}

	return Rule{
		PathFrom:   pathFrom,
		FolderId:   folderID,
		Account:    account,
		Time:       timeOfDay,
		Weekday:    weekday,
		DayOfMonth: day,
	}, nil
}

func canonicalWeekday(name string) (string, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(name, d.String()) {
			return d.String(), nil
		}
	}
	return "", errors.Wrapf(ErrInvalidWeekday, "'%s'", name)
}

// Record returns the rule in its 6-field persisted form. Weekday and
// DayOfMonth serialize as empty strings when unset.
func (r Rule) Record() []string {
	dayOfMonth := ""
	if r.DayOfMonth != 0 {
		dayOfMonth = strconv.Itoa(r.DayOfMonth)
	}

	return []string{r.PathFrom, r.FolderId, r.Account, r.Time, r.Weekday, dayOfMonth}
}

// DueAt reports whether the rule should fire at the given instant. Matching
// is minute-granular: the rule is due for the whole minute named by its Time
// field on every day permitted by its recurrence restriction.
func (r Rule) DueAt(now time.Time) bool {
	if r.Weekday != "" && !strings.EqualFold(r.Weekday, now.Weekday().String()) {
		return false
	}

	if r.DayOfMonth != 0 && r.DayOfMonth != now.Day() {
		return false
	}

	return r.Time == now.Format("15:04")
}
