package app

import (
	"errors"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"braid/internal/domain"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home          string                // config directory, e.g. $HOME/.braid
	RelayURL      string                // relay base URL, e.g. http://127.0.0.1:8080
	Param         domain.PqParameterSet // ML-KEM parameter set for new devices
	OneTimeCount  int                   // one-time pre-keys generated per batch
	SkippedKeyCap int                   // skipped-key cache bound per chain
	Trace         bool                  // emit protocol trace events
	HTTP          *http.Client          // optional; defaults to http.DefaultClient
}

// fileConfig is the YAML shape of an optional config file in the home dir.
type fileConfig struct {
	RelayURL      string `yaml:"relay_url"`
	Param         string `yaml:"pq_parameter_set"`
	OneTimeCount  int    `yaml:"one_time_prekey_count"`
	SkippedKeyCap int    `yaml:"skipped_key_cap"`
	Trace         bool   `yaml:"trace"`
}

// LoadFile merges settings from a YAML file into cfg. Flags already set on
// cfg win; the file only fills blanks. A missing file is not an error.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return err
	}
	if c.RelayURL == "" {
		c.RelayURL = fc.RelayURL
	}
	if c.Param == "" && fc.Param != "" {
		c.Param = domain.PqParameterSet(fc.Param)
	}
	if c.OneTimeCount == 0 {
		c.OneTimeCount = fc.OneTimeCount
	}
	if c.SkippedKeyCap == 0 {
		c.SkippedKeyCap = fc.SkippedKeyCap
	}
	if fc.Trace {
		c.Trace = true
	}
	return nil
}

// withDefaults fills the remaining blanks.
func (c Config) withDefaults() Config {
	if c.Param == "" {
		c.Param = domain.MLKem512
	}
	if c.SkippedKeyCap == 0 {
		c.SkippedKeyCap = domain.DefaultSkippedKeyCap
	}
	if c.HTTP == nil {
		c.HTTP = http.DefaultClient
	}
	return c
}
