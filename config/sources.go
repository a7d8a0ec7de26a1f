package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Adapter kinds
const (
	KindLedgeAI = "ledgeai"
	KindAINow   = "ainow"
	KindPRTimes = "prtimes"
	KindITmedia = "itmedia"
	KindZDNet   = "zdnet"
	KindRSS     = "rss"
)

// SourceConfig configures one site adapter.
type SourceConfig struct {
	ID             string   `yaml:"id" json:"id"`
	Kind           string   `yaml:"kind" json:"kind"`
	Name           string   `yaml:"name" json:"name"`
	BaseURL        string   `yaml:"base_url" json:"base_url"`
	FeedURL        string   `yaml:"feed_url,omitempty" json:"feed_url,omitempty"`
	Paths          []string `yaml:"paths,omitempty" json:"paths,omitempty"`
	MaxPages       int      `yaml:"max_pages" json:"max_pages"`
	MaxItems       int      `yaml:"max_items" json:"max_items"`
	TimeoutSeconds int      `yaml:"timeout_seconds" json:"timeout_seconds"`
	Disabled       bool     `yaml:"disabled" json:"disabled"`
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// DefaultSources returns the five built-in Japanese AI news sites.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{ID: "ledgeai", Kind: KindLedgeAI, Name: "Ledge.ai", BaseURL: "https://ledge.ai", MaxPages: DefaultMaxPages, MaxItems: DefaultMaxItems},
		{ID: "ainow", Kind: KindAINow, Name: "AINOW", BaseURL: "https://ainow.ai", MaxPages: DefaultMaxPages, MaxItems: DefaultMaxItems},
		{ID: "prtimes", Kind: KindPRTimes, Name: "PR TIMES", BaseURL: "https://prtimes.jp", MaxPages: 1, MaxItems: DefaultMaxItems},
		{ID: "itmedia", Kind: KindITmedia, Name: "ITmedia AI+", BaseURL: "https://www.itmedia.co.jp", MaxPages: 1, MaxItems: DefaultMaxItems},
		{ID: "zdnet", Kind: KindZDNet, Name: "ZDNet Japan", BaseURL: "https://japan.zdnet.com", MaxPages: 1, MaxItems: DefaultMaxItems},
	}
}

// LoadSources reads a YAML sources file and merges it over the defaults.
// Entries whose id matches a default override its non-zero fields; other entries are appended.
// ${VAR} references are expanded from the environment before parsing.
func LoadSources(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}
	return MergeSources(DefaultSources(), file.Sources), nil
}

// MergeSources overlays overrides onto base by id.
func MergeSources(base, overrides []SourceConfig) []SourceConfig {
	out := append([]SourceConfig(nil), base...)
	index := make(map[string]int, len(out))
	for i, s := range out {
		index[s.ID] = i
	}

	for _, o := range overrides {
		o.ID = strings.TrimSpace(o.ID)
		i, ok := index[o.ID]
		if !ok {
			index[o.ID] = len(out)
			out = append(out, o)
			continue
		}
		cur := &out[i]
		if o.Kind != "" {
			cur.Kind = o.Kind
		}
		if o.Name != "" {
			cur.Name = o.Name
		}
		if o.BaseURL != "" {
			cur.BaseURL = o.BaseURL
		}
		if o.FeedURL != "" {
			cur.FeedURL = o.FeedURL
		}
		if len(o.Paths) > 0 {
			cur.Paths = o.Paths
		}
		if o.MaxPages > 0 {
			cur.MaxPages = o.MaxPages
		}
		if o.MaxItems > 0 {
			cur.MaxItems = o.MaxItems
		}
		if o.TimeoutSeconds > 0 {
			cur.TimeoutSeconds = o.TimeoutSeconds
		}
		cur.Disabled = o.Disabled
	}
	return out
}

// Enabled returns the sources that are not disabled.
func Enabled(sources []SourceConfig) []SourceConfig {
	out := make([]SourceConfig, 0, len(sources))
	for _, s := range sources {
		if !s.Disabled {
			out = append(out, s)
		}
	}
	return out
}
