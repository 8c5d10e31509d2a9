package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/osipovk/autobackuper/pkg/domain"
)

// Number of fields in one persisted rule record:
// pathFrom, folderID, account, time, weekday, dayOfMonth
const recordFieldCount = 6

var ErrRulesFileNotFound = errors.New("store: rules file does not exist")

// MalformedRecordError reports a rule record with too few fields. The whole
// file is rejected in that case, partial rule sets are never returned.
type MalformedRecordError struct {
	Line   int
	Fields int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("store: malformed rule record at line %d: got %d fields, want %d", e.Line, e.Fields, recordFieldCount)
}

// RuleStore is the durable home of backup rules: a flat CSV file with one
// 6-field record per rule. The file is read fully into memory on every
// operation; rule sets are human-authored and small.
//
// Mutations are serialized by an internal mutex, so a single process may
// edit rules concurrently with engine restarts. The backing file must be
// created before first use (see Initialize).
type RuleStore struct {
	mu   sync.Mutex
	path string
}

func New(path string) *RuleStore {
	return &RuleStore{path: path}
}

// Initialize creates the rules file and its directory when absent. It is the
// explicit startup step required before any other store operation.
func (s *RuleStore) Initialize(dir string) error {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "store: unable to create rules directory")
		}
	}

	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrap(err, "store: unable to stat rules file")
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "store: unable to create rules file")
	}

	return f.Close()
}

// LoadRules reads every record from the rules file, in file order. A missing
// file is ErrRulesFileNotFound; a record with fewer than 6 fields, or one
// that fails rule validation, rejects the whole load.
func (s *RuleStore) LoadRules() ([]domain.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadRules()
}

func (s *RuleStore) loadRules() ([]domain.Rule, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRulesFileNotFound
		}
		return nil, errors.Wrap(err, "store: unable to open rules file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "store: unable to parse rules file")
	}

	rules := make([]domain.Rule, 0, len(records))

	for i, record := range records {
		if len(record) < recordFieldCount {
			return nil, &MalformedRecordError{Line: i + 1, Fields: len(record)}
		}

		rule, err := domain.NewRule(record[0], record[1], record[2], record[3], record[4], record[5])
		if err != nil {
			return nil, errors.Wrapf(err, "store: invalid rule at line %d", i+1)
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

// SaveRules overwrites the rules file with the given rules. The file must
// already exist: a missing file is ErrRulesFileNotFound, not an implicit
// create.
func (s *RuleStore) SaveRules(rules []domain.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveRules(rules)
}

func (s *RuleStore) saveRules(rules []domain.Rule) error {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return ErrRulesFileNotFound
		}
		return errors.Wrap(err, "store: unable to stat rules file")
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "store: unable to open rules file for writing")
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	for _, rule := range rules {
		if err := writer.Write(rule.Record()); err != nil {
			return errors.Wrap(err, "store: unable to write rule record")
		}
	}

	writer.Flush()

	return errors.Wrap(writer.Error(), "store: unable to flush rules file")
}

// DeleteRule removes every record equal to the given rule and rewrites the
// store. Equal-by-value duplicates are all removed together.
func (s *RuleStore) DeleteRule(rule domain.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.loadRules()
	if err != nil {
		return err
	}

	kept := rules[:0]
	for _, r := range rules {
		if r != rule {
			kept = append(kept, r)
		}
	}

	return s.saveRules(kept)
}

// SaveUniqueRules rewrites the store with the set union of the existing
// rules and newRules. Exact repeats, within and across the two collections,
// collapse to one record. The resulting file order is undefined.
func (s *RuleStore) SaveUniqueRules(newRules []domain.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadRules()
	if err != nil {
		return err
	}

	seen := make(map[domain.Rule]struct{}, len(existing)+len(newRules))
	combined := make([]domain.Rule, 0, len(existing)+len(newRules))

	for _, r := range append(existing, newRules...) {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		combined = append(combined, r)
	}

	return s.saveRules(combined)
}
