package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/apimonitor/internal/domain"
)

// minInterval keeps a typo from hammering an endpoint.
const minInterval = time.Second

// Duration wraps time.Duration for YAML ("10s", "1m").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// TargetsFile is the YAML layout of the static target list:
//
//	interval: 10s
//	timeout: 5s
//	targets:
//	  - name: GitHub
//	    url: https://api.github.com
//	    interval: 30s
type TargetsFile struct {
	Interval Duration       `yaml:"interval"`
	Timeout  Duration       `yaml:"timeout"`
	Targets  []TargetConfig `yaml:"targets"`
}

type TargetConfig struct {
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url"`
	Interval Duration `yaml:"interval"`
	Timeout  Duration `yaml:"timeout"`
}

// DefaultTargets is the set monitored when no targets file is given.
func DefaultTargets(interval, timeout time.Duration) []domain.Target {
	return []domain.Target{
		{Name: "Google", URL: "https://www.google.com", Interval: interval, Timeout: timeout},
		{Name: "GitHub", URL: "https://api.github.com", Interval: interval, Timeout: timeout},
		{Name: "NonExistentAPI", URL: "http://this-api-does-not-exist.com", Interval: interval, Timeout: timeout},
	}
}

// LoadTargets reads the targets file at path, or returns DefaultTargets
// when path is empty. interval and timeout fill whatever the file leaves
// unset.
func LoadTargets(path string, interval, timeout time.Duration) ([]domain.Target, error) {
	if path == "" {
		ts := DefaultTargets(interval, timeout)
		return ts, ValidateTargets(ts)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	return ParseTargets(data, interval, timeout)
}

// ParseTargets decodes a targets file. ${VAR} references are expanded from
// the environment before decoding.
func ParseTargets(data []byte, interval, timeout time.Duration) ([]domain.Target, error) {
	var f TargetsFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &f); err != nil {
		return nil, fmt.Errorf("parse targets file: %w", err)
	}
	if f.Interval > 0 {
		interval = f.Interval.Duration()
	}
	if f.Timeout > 0 {
		timeout = f.Timeout.Duration()
	}

	out := make([]domain.Target, 0, len(f.Targets))
	for _, tc := range f.Targets {
		t := domain.Target{
			Name:     strings.TrimSpace(tc.Name),
			URL:      strings.TrimSpace(tc.URL),
			Interval: tc.Interval.Duration(),
			Timeout:  tc.Timeout.Duration(),
		}
		if t.Interval == 0 {
			t.Interval = interval
		}
		if t.Timeout == 0 {
			t.Timeout = timeout
		}
		out = append(out, t.WithDefaults())
	}
	if err := ValidateTargets(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateTargets reports every problem in the list at once.
func ValidateTargets(ts []domain.Target) error {
	if len(ts) == 0 {
		return errors.New("no targets configured")
	}
	var err error
	seen := make(map[string]bool, len(ts))
	for i, t := range ts {
		if t.Name == "" {
			err = multierr.Append(err, fmt.Errorf("target %d: name is empty", i))
		} else if seen[t.Name] {
			err = multierr.Append(err, fmt.Errorf("duplicate target name: %q", t.Name))
		}
		seen[t.Name] = true
		if !isValidHTTPURL(t.URL) {
			err = multierr.Append(err, fmt.Errorf("target %q: url %q must be an absolute http(s) URL", t.Name, t.URL))
		}
		if t.Interval < minInterval {
			err = multierr.Append(err, fmt.Errorf("target %q: interval %s is below %s", t.Name, t.Interval, minInterval))
		}
		if t.Timeout <= 0 {
			err = multierr.Append(err, fmt.Errorf("target %q: timeout must be positive", t.Name))
		}
	}
	return err
}

func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
