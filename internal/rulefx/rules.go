package rulefx

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/osipovk/autobackuper/pkg/domain"
	"github.com/osipovk/autobackuper/pkg/store"
)

const (
	ConfigRulesFile = "rules.file"

	DefaultRulesFile = "rule/rules.csv"
)

type RuleStoreConfig struct {
	File string
}

func RuleStoreConfigProvider(v *viper.Viper) *RuleStoreConfig {
	file := v.GetString(ConfigRulesFile)
	if file == "" {
		file = DefaultRulesFile
	}

	return &RuleStoreConfig{
		File: file,
	}
}

// RuleStoreProvider opens the rule store, creating the backing directory and
// file on first run. Every later store operation requires the file to exist.
func RuleStoreProvider(config *RuleStoreConfig, logger *logrus.Logger) (*store.RuleStore, error) {
	s := store.New(config.File)

	if err := s.Initialize(filepath.Dir(config.File)); err != nil {
		return nil, errors.Wrap(err, "Unable to initialize rules file")
	}

	logger.WithField("file", config.File).Debug("Using rules file")

	return s, nil
}

func LoadRules(s *store.RuleStore, logger *logrus.Logger) ([]domain.Rule, error) {
	rules, err := s.LoadRules()
	if err != nil {
		return nil, errors.Wrap(err, "Unable to load rules")
	}

	logger.WithField("total_rules", len(rules)).Info("Loaded backup rules")

	return rules, nil
}
