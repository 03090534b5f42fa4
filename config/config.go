// Package config provides configuration loading and management for semview.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semview/classifier"
	"github.com/c360studio/semview/labels"
	"github.com/c360studio/semview/viewmodel"
	"github.com/c360studio/semview/vocabulary/axiology"
	"github.com/c360studio/semview/vocabulary/rdf"
)

// Config represents the complete semview configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Source     SourceConfig     `yaml:"source"`
	Cache      CacheConfig      `yaml:"cache"`
	View       ViewConfig       `yaml:"view"`
	Labels     LabelsConfig     `yaml:"labels"`
	Classifier ClassifierConfig `yaml:"classifier"`
	NATS       NATSConfig       `yaml:"nats"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	// Addr is the listen address (default: :8080)
	Addr string `yaml:"addr"`
	// CORSOrigins lists origins allowed to call the API (default: all)
	CORSOrigins []string `yaml:"cors_origins"`
	// MaxBodySize bounds uploaded documents in bytes
	MaxBodySize int64 `yaml:"max_body_size"`
	// ReadTimeout and WriteTimeout bound a single request
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// SourceConfig configures URL fetching
type SourceConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	MaxSize      int64         `yaml:"max_size"`
	UserAgent    string        `yaml:"user_agent"`
	// AllowHTTP permits plain http URLs; many published ontologies use it
	AllowHTTP bool `yaml:"allow_http"`
	// AllowPrivate permits localhost and private network addresses
	AllowPrivate bool `yaml:"allow_private"`
}

// CacheConfig configures the snapshot repository
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
	// PersistSources stores source documents in NATS KV so evicted
	// snapshots can be rebuilt. Requires nats.url.
	PersistSources bool `yaml:"persist_sources"`
}

// ViewConfig holds view-model defaults
type ViewConfig struct {
	MaxNodes         int  `yaml:"max_nodes"`
	IncludeOther     bool `yaml:"include_other"`
	IncludeTypeEdges bool `yaml:"include_type_edges"`
}

// LabelsConfig configures label resolution
type LabelsConfig struct {
	// Language is the preferred label language; empty means no preference
	Language             string `yaml:"language"`
	LabelPredicate       string `yaml:"label_predicate"`
	CommentPredicate     string `yaml:"comment_predicate"`
	DescriptionPredicate string `yaml:"description_predicate"`
}

// ClassifierConfig configures entity classification
type ClassifierConfig struct {
	// IndividualRule is "broad" or "strict"
	IndividualRule string `yaml:"individual_rule"`
	// ExtraClassMarkers are additional type IRIs that mark a class
	ExtraClassMarkers []string `yaml:"extra_class_markers"`
}

// NATSConfig configures the optional NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = NATS disabled)
	URL string `yaml:"url"`
	// SubjectPrefix prefixes request subjects (default: semview)
	SubjectPrefix string `yaml:"subject_prefix"`
	// QueueGroup lets several instances share requests
	QueueGroup string `yaml:"queue_group"`
	// SourceBucket is the KV bucket for persisted sources
	SourceBucket string `yaml:"source_bucket"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodySize:  32 << 20,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Source: SourceConfig{
			FetchTimeout: 30 * time.Second,
			MaxSize:      32 << 20,
			UserAgent:    "semview/1.0",
			AllowHTTP:    true,
		},
		Cache: CacheConfig{
			Size: 16,
			TTL:  30 * time.Minute,
		},
		View: ViewConfig{
			MaxNodes: viewmodel.DefaultMaxNodes,
		},
		Labels: LabelsConfig{
			Language:             labels.DefaultLanguage,
			LabelPredicate:       rdf.Label,
			CommentPredicate:     rdf.Comment,
			DescriptionPredicate: axiology.HasDescription,
		},
		Classifier: ClassifierConfig{
			IndividualRule: string(classifier.RuleBroad),
		},
		NATS: NATSConfig{
			SubjectPrefix: "semview",
			QueueGroup:    "semview",
			SourceBucket:  "SEMVIEW_SOURCES",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, errors.New("server.max_body_size must be positive"))
	}
	if c.Source.MaxSize <= 0 {
		errs = append(errs, errors.New("source.max_size must be positive"))
	}
	if c.Source.FetchTimeout <= 0 {
		errs = append(errs, errors.New("source.fetch_timeout must be positive"))
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, errors.New("cache.size must be positive"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if c.Cache.PersistSources && c.NATS.URL == "" {
		errs = append(errs, errors.New("cache.persist_sources requires nats.url"))
	}
	if c.View.MaxNodes < 0 {
		errs = append(errs, errors.New("view.max_nodes must not be negative"))
	}
	if c.Labels.LabelPredicate == "" || c.Labels.CommentPredicate == "" {
		errs = append(errs, errors.New("labels.label_predicate and labels.comment_predicate are required"))
	}
	if _, err := classifier.ParseIndividualRule(c.Classifier.IndividualRule); err != nil {
		errs = append(errs, fmt.Errorf("classifier.individual_rule: %w", err))
	}
	return errors.Join(errs...)
}

// ClassifierOptions returns the classifier settings.
func (c *Config) ClassifierOptions() classifier.Options {
	rule, err := classifier.ParseIndividualRule(c.Classifier.IndividualRule)
	if err != nil {
		rule = classifier.RuleBroad
	}
	return classifier.Options{
		IndividualRule:    rule,
		ExtraClassMarkers: c.Classifier.ExtraClassMarkers,
	}
}

// LabelOptions returns the label resolver settings.
func (c *Config) LabelOptions() labels.Options {
	return labels.Options{
		Language:             c.Labels.Language,
		LabelPredicate:       c.Labels.LabelPredicate,
		CommentPredicate:     c.Labels.CommentPredicate,
		DescriptionPredicate: c.Labels.DescriptionPredicate,
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := config.LoadInto(path); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadInto overlays the YAML file at path onto c. Keys absent from the file
// keep their current values; keys present, including false and zero, win.
func (c *Config) LoadInto(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.YAML()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// YAML encodes the configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values). Booleans can only be switched on by a merge.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if len(other.Server.CORSOrigins) > 0 {
		c.Server.CORSOrigins = other.Server.CORSOrigins
	}
	if other.Server.MaxBodySize != 0 {
		c.Server.MaxBodySize = other.Server.MaxBodySize
	}
	if other.Server.ReadTimeout != 0 {
		c.Server.ReadTimeout = other.Server.ReadTimeout
	}
	if other.Server.WriteTimeout != 0 {
		c.Server.WriteTimeout = other.Server.WriteTimeout
	}

	// Source
	if other.Source.FetchTimeout != 0 {
		c.Source.FetchTimeout = other.Source.FetchTimeout
	}
	if other.Source.MaxSize != 0 {
		c.Source.MaxSize = other.Source.MaxSize
	}
	if other.Source.UserAgent != "" {
		c.Source.UserAgent = other.Source.UserAgent
	}
	c.Source.AllowHTTP = c.Source.AllowHTTP || other.Source.AllowHTTP
	c.Source.AllowPrivate = c.Source.AllowPrivate || other.Source.AllowPrivate

	// Cache
	if other.Cache.Size != 0 {
		c.Cache.Size = other.Cache.Size
	}
	if other.Cache.TTL != 0 {
		c.Cache.TTL = other.Cache.TTL
	}
	c.Cache.PersistSources = c.Cache.PersistSources || other.Cache.PersistSources

	// View
	if other.View.MaxNodes != 0 {
		c.View.MaxNodes = other.View.MaxNodes
	}
	c.View.IncludeOther = c.View.IncludeOther || other.View.IncludeOther
	c.View.IncludeTypeEdges = c.View.IncludeTypeEdges || other.View.IncludeTypeEdges

	// Labels
	if other.Labels.Language != "" {
		c.Labels.Language = other.Labels.Language
	}
	if other.Labels.LabelPredicate != "" {
		c.Labels.LabelPredicate = other.Labels.LabelPredicate
	}
	if other.Labels.CommentPredicate != "" {
		c.Labels.CommentPredicate = other.Labels.CommentPredicate
	}
	if other.Labels.DescriptionPredicate != "" {
		c.Labels.DescriptionPredicate = other.Labels.DescriptionPredicate
	}

	// Classifier
	if other.Classifier.IndividualRule != "" {
		c.Classifier.IndividualRule = other.Classifier.IndividualRule
	}
	if len(other.Classifier.ExtraClassMarkers) > 0 {
		c.Classifier.ExtraClassMarkers = other.Classifier.ExtraClassMarkers
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.SubjectPrefix != "" {
		c.NATS.SubjectPrefix = other.NATS.SubjectPrefix
	}
	if other.NATS.QueueGroup != "" {
		c.NATS.QueueGroup = other.NATS.QueueGroup
	}
	if other.NATS.SourceBucket != "" {
		c.NATS.SourceBucket = other.NATS.SourceBucket
	}
}
