package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/osipovk/autobackuper/pkg/domain"
)

func mustRule(t *testing.T, pathFrom, folderId, timeOfDay, weekday, dayOfMonth string) domain.Rule {
	rule, err := domain.NewRule(pathFrom, folderId, "acc", timeOfDay, weekday, dayOfMonth)
	if err != nil {
		t.Fatal(err)
	}

	return rule
}

func initializedStore(t *testing.T) *RuleStore {
	dir := t.TempDir()

	s := New(filepath.Join(dir, "rule", "rules.csv"))
	if err := s.Initialize(filepath.Join(dir, "rule")); err != nil {
		t.Fatal(err)
	}

	return s
}

func asSet(rules []domain.Rule) map[domain.Rule]int {
	set := make(map[domain.Rule]int)
	for _, r := range rules {
		set[r]++
	}
	return set
}

func TestRuleStore_LoadRules_MissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "rules.csv"))

	_, err := s.LoadRules()

	assert.Equal(t, ErrRulesFileNotFound, err)
}

func TestRuleStore_SaveRules_MissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "rules.csv"))

	err := s.SaveRules([]domain.Rule{mustRule(t, "/data", "folder-id", "09:00", "", "")})

	assert.Equal(t, ErrRulesFileNotFound, err)
}

func TestRuleStore_Initialize_CreatesEmptyStore(t *testing.T) {
	s := initializedStore(t)

	rules, err := s.LoadRules()

	assert.Nil(t, err)
	assert.Empty(t, rules)

	// Initialize is idempotent and keeps existing content
	assert.Nil(t, s.SaveRules([]domain.Rule{mustRule(t, "/data", "folder-id", "09:00", "", "")}))
	assert.Nil(t, s.Initialize(""))

	rules, err = s.LoadRules()
	assert.Nil(t, err)
	assert.Len(t, rules, 1)
}

func TestRuleStore_RoundTrip(t *testing.T) {
	s := initializedStore(t)

	saved := []domain.Rule{
		mustRule(t, "/data/db", "folder-a", "09:00", "", ""),
		mustRule(t, "/data/photos, raw", "folder-b", "23:30", "Sunday", ""),
		mustRule(t, "/data/reports", "folder-c", "06:15", "", "1"),
	}

	assert.Nil(t, s.SaveRules(saved))

	loaded, err := s.LoadRules()
	assert.Nil(t, err)
	assert.Equal(t, saved, loaded)

	// Save of a fresh load keeps the record set intact
	assert.Nil(t, s.SaveRules(loaded))

	again, err := s.LoadRules()
	assert.Nil(t, err)
	assert.Equal(t, asSet(loaded), asSet(again))
}

func TestRuleStore_LoadRules_MalformedRecord(t *testing.T) {
	s := initializedStore(t)

	err := os.WriteFile(s.path, []byte("/data,folder-id,acc,09:00,,\n/short,row\n"), 0o644)
	assert.Nil(t, err)

	_, err = s.LoadRules()

	var malformed *MalformedRecordError
	assert.True(t, errors.As(err, &malformed))
	assert.Equal(t, 2, malformed.Line)
	assert.Equal(t, 2, malformed.Fields)
}

func TestRuleStore_LoadRules_InvalidRule(t *testing.T) {
	s := initializedStore(t)

	err := os.WriteFile(s.path, []byte("/data,folder-id,acc,09:00,Funday,\n"), 0o644)
	assert.Nil(t, err)

	// A malformed file is rejected whole, no partial rule set
	_, err = s.LoadRules()
	assert.Equal(t, domain.ErrInvalidWeekday, errors.Cause(err))
}

func TestRuleStore_DeleteRule_RemovesAllOccurrences(t *testing.T) {
	s := initializedStore(t)

	a := mustRule(t, "/data/a", "folder-a", "09:00", "", "")
	b := mustRule(t, "/data/b", "folder-b", "10:00", "", "")

	assert.Nil(t, s.SaveRules([]domain.Rule{a, b, a}))

	assert.Nil(t, s.DeleteRule(a))

	rules, err := s.LoadRules()
	assert.Nil(t, err)
	assert.Equal(t, []domain.Rule{b}, rules)
}

func TestRuleStore_SaveUniqueRules_Deduplicates(t *testing.T) {
	s := initializedStore(t)

	a := mustRule(t, "/data/a", "folder-a", "09:00", "", "")
	b := mustRule(t, "/data/b", "folder-b", "10:00", "Monday", "")
	c := mustRule(t, "/data/c", "folder-c", "11:00", "", "28")

	assert.Nil(t, s.SaveRules([]domain.Rule{a, b}))

	assert.Nil(t, s.SaveUniqueRules([]domain.Rule{b, c, c}))

	rules, err := s.LoadRules()
	assert.Nil(t, err)
	assert.Equal(t, map[domain.Rule]int{a: 1, b: 1, c: 1}, asSet(rules))
}

func TestRuleStore_SaveUniqueRules_Idempotent(t *testing.T) {
	s := initializedStore(t)

	input := []domain.Rule{
		mustRule(t, "/data/a", "folder-a", "09:00", "", ""),
		mustRule(t, "/data/b", "folder-b", "10:00", "", ""),
	}

	assert.Nil(t, s.SaveUniqueRules(input))

	first, err := s.LoadRules()
	assert.Nil(t, err)

	assert.Nil(t, s.SaveUniqueRules(input))

	second, err := s.LoadRules()
	assert.Nil(t, err)

	assert.Equal(t, asSet(first), asSet(second))
}
