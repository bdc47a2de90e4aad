// Package config loads the pubsubconf tool configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/agentic-research/pubsubconf/internal/variant"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("nodeid", func(fl validator.FieldLevel) bool {
		_, err := nodespace.ParseNodeID(fl.Field().String())
		return err == nil
	})
}

// Config drives one synthesis run.
type Config struct {
	// Snapshot is the captured node space: a .db SQLite file or a JSON dump.
	Snapshot string `yaml:"snapshot" hcl:"snapshot,optional" validate:"required"`

	// Root is the node to start from, normally the PublishSubscribe object.
	Root string `yaml:"root" hcl:"root,optional" validate:"required,nodeid"`

	Concurrency    int    `yaml:"concurrency" hcl:"concurrency,optional" validate:"min=1,max=64"`
	MismatchPolicy string `yaml:"mismatch_policy" hcl:"mismatch_policy,optional" validate:"oneof=best-effort warn reject"`
	Format         string `yaml:"format" hcl:"format,optional" validate:"oneof=json yaml"`
	LogLevel       string `yaml:"log_level" hcl:"log_level,optional" validate:"oneof=debug info warn error"`

	// Select is an optional JSONPath applied to the output document.
	Select string `yaml:"select,omitempty" hcl:"select,optional"`
}

func Default() Config {
	return Config{
		Root:           "i=14443",
		Concurrency:    1,
		MismatchPolicy: "best-effort",
		Format:         "json",
		LogLevel:       "info",
	}
}

// Load reads a config file over the defaults. Files ending in .hcl are HCL,
// anything else is YAML. The result is not validated; callers apply flag
// overrides first and then call Validate.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if filepath.Ext(path) == ".hcl" {
		return ParseHCL(path, data)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ParseHCL decodes HCL over the defaults. filename is used in diagnostics.
func ParseHCL(filename string, data []byte) (Config, error) {
	cfg := Default()
	if err := hclsimple.Decode(filename, data, nil, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// RootNode parses Root. Validate has already checked it.
func (c Config) RootNode() (nodespace.NodeID, error) {
	return nodespace.ParseNodeID(c.Root)
}

func (c Config) Policy() (variant.MismatchPolicy, error) {
	return variant.ParseMismatchPolicy(c.MismatchPolicy)
}

func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, e.Param())
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, e.Param())
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s], got %q", field, e.Param(), e.Value())
		case "nodeid":
			return fmt.Errorf("%s: not a node id: %q", field, e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}
