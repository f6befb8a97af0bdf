package model

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// RoutePrefix is prepended to a data source name to form its validator route.
const RoutePrefix = "check_"

// StepEnd is the validator route that terminates the turn.
const StepEnd = "end"

var dataSourceName = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// CompanyProfile describes the tenant the agent speaks for.
type CompanyProfile struct {
	Name     string `yaml:"name"`
	Industry string `yaml:"industry"`
	Contact  string `yaml:"contact"`
}

// DataSource is one queryable dataset the agent may escalate to.
type DataSource struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Path locates the backing store handed to the DatasetQueryRunner.
	Path string `yaml:"path"`
}

// MemoryConfig toggles the short window and the long-term store.
type MemoryConfig struct {
	ShortTerm bool   `yaml:"short_term"`
	LongTerm  bool   `yaml:"long_term"`
	Namespace string `yaml:"namespace"`
}

// AgentConfiguration is read-only for the lifetime of an orchestrator and may
// be shared by concurrent turns. Administrative updates return a new value.
type AgentConfiguration struct {
	AgentID        string         `yaml:"agent_id"`
	BasePrompt     string         `yaml:"base_prompt"`
	Tone           string         `yaml:"tone"`
	Company        CompanyProfile `yaml:"company"`
	Memory         MemoryConfig   `yaml:"memory"`
	DatasetCatalog string         `yaml:"dataset_catalog"`
	DataSources    []DataSource   `yaml:"data_sources"`
}

// LoadAgentConfiguration reads and validates a YAML agent profile.
func LoadAgentConfiguration(path string) (AgentConfiguration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return AgentConfiguration{}, fmt.Errorf("read agent config: %w", err)
	}
	return ParseAgentConfiguration(raw)
}

// ParseAgentConfiguration decodes and validates a YAML agent profile.
func ParseAgentConfiguration(raw []byte) (AgentConfiguration, error) {
	var cfg AgentConfiguration
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return AgentConfiguration{}, fmt.Errorf("decode agent config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AgentConfiguration{}, err
	}
	return cfg, nil
}

// Validate checks that data source names are unique and safe to embed in a route.
func (c AgentConfiguration) Validate() error {
	seen := make(map[string]struct{}, len(c.DataSources))
	for i, ds := range c.DataSources {
		if !dataSourceName.MatchString(ds.Name) {
			return fmt.Errorf("data source %d: invalid name %q", i, ds.Name)
		}
		if _, dup := seen[ds.Name]; dup {
			return fmt.Errorf("data source %q registered twice", ds.Name)
		}
		seen[ds.Name] = struct{}{}
	}
	if c.Memory.LongTerm && strings.TrimSpace(c.Memory.Namespace) == "" {
		return fmt.Errorf("long-term memory enabled without a namespace")
	}
	return nil
}

// DataSourceNames returns the registered names in configuration order.
func (c AgentConfiguration) DataSourceNames() []string {
	names := make([]string, 0, len(c.DataSources))
	for _, ds := range c.DataSources {
		names = append(names, ds.Name)
	}
	return names
}

// DataSource looks up a registered data source by name.
func (c AgentConfiguration) DataSource(name string) (DataSource, bool) {
	for _, ds := range c.DataSources {
		if ds.Name == name {
			return ds, true
		}
	}
	return DataSource{}, false
}

// AllowedSteps is the exact set of values the validator may emit:
// one "check_<name>" per data source followed by "end".
func (c AgentConfiguration) AllowedSteps() []string {
	steps := make([]string, 0, len(c.DataSources)+1)
	for _, ds := range c.DataSources {
		steps = append(steps, RouteFor(ds.Name))
	}
	return append(steps, StepEnd)
}

// RouteFor returns the validator route of a data source.
func RouteFor(name string) string {
	return RoutePrefix + name
}

// WithBasePrompt returns a copy with the base prompt replaced.
func (c AgentConfiguration) WithBasePrompt(prompt string) AgentConfiguration {
	c.DataSources = slices.Clone(c.DataSources)
	c.BasePrompt = prompt
	return c
}

// WithTone returns a copy with the communication tone replaced.
func (c AgentConfiguration) WithTone(tone string) AgentConfiguration {
	c.DataSources = slices.Clone(c.DataSources)
	c.Tone = tone
	return c
}

// WithMemory returns a copy with the memory toggles replaced.
func (c AgentConfiguration) WithMemory(m MemoryConfig) AgentConfiguration {
	c.DataSources = slices.Clone(c.DataSources)
	c.Memory = m
	return c
}

// WithCompany returns a copy with the company profile replaced.
func (c AgentConfiguration) WithCompany(p CompanyProfile) AgentConfiguration {
	c.DataSources = slices.Clone(c.DataSources)
	c.Company = p
	return c
}
