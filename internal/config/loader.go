package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable that points at an optional YAML
// config file. The file is a flat mapping of the same keys as the
// environment variables; real environment variables take precedence.
const FileEnv = "SALESLOAD_CONFIG"

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	file, err := readFile(os.Getenv(FileEnv))
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	lookup := func(name string) string {
		if v := os.Getenv(name); v != "" {
			return v
		}
		return file[name]
	}

	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// readFile parses the YAML config file into a key/value map.
// An empty path yields an empty map.
func readFile(path string) (map[string]string, error) {
	out := map[string]string{}
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case []any:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			out[k] = strings.Join(parts, ",")
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out, nil
}

// loadStruct recursively populates struct fields from the lookup source.
func loadStruct(v reflect.Value, lookup func(string) string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, lookup); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary key, then alternate
		value := lookup(envName)
		if value == "" && envAlt != "" {
			value = lookup(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Input validation
	if strings.TrimSpace(c.Input.RegionA) == "" {
		errs = append(errs, "SOURCE_REGION_A is required")
	}
	if strings.TrimSpace(c.Input.RegionB) == "" {
		errs = append(errs, "SOURCE_REGION_B is required")
	}

	// Output validation
	if !c.Output.SkipIntermediate && strings.TrimSpace(c.Output.IntermediatePath) == "" {
		errs = append(errs, "INTERMEDIATE_PATH is required unless SKIP_INTERMEDIATE is true")
	}
	if c.Output.SkipIntermediate && c.Output.DryRun {
		errs = append(errs, "DRY_RUN and SKIP_INTERMEDIATE cannot both be true")
	}

	// Database validation
	if !c.Output.DryRun && c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if !validDriver(c.Database.Driver) {
		errs = append(errs, fmt.Sprintf("DB_DRIVER (%q) must be one of: %s", c.Database.Driver, strings.Join(Drivers, ", ")))
	}
	if strings.TrimSpace(c.Database.Table) == "" {
		errs = append(errs, "DB_TABLE is required")
	}
	if c.Database.ConnectTimeout < 0 {
		errs = append(errs, "DB_CONNECT_TIMEOUT must be non-negative")
	}

	// Load validation
	validNumeric := map[string]bool{"double": true, "numeric": true}
	if !validNumeric[strings.ToLower(c.Load.NumericType)] {
		errs = append(errs, fmt.Sprintf("LOAD_NUMERIC_TYPE (%q) must be one of: double, numeric", c.Load.NumericType))
	}
	if c.Load.Timeout < 0 {
		errs = append(errs, "LOAD_TIMEOUT must be non-negative")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func validDriver(d string) bool {
	for _, v := range Drivers {
		if d == v {
			return true
		}
	}
	return false
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Input: {RegionA: %q, RegionB: %q, Sheet: %q}, ",
		c.Input.RegionA, c.Input.RegionB, c.Input.Sheet))
	b.WriteString(fmt.Sprintf("Output: {IntermediatePath: %q, SkipIntermediate: %v, DryRun: %v}, ",
		c.Output.IntermediatePath, c.Output.SkipIntermediate, c.Output.DryRun))
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], Driver: %q, Schema: %q, Table: %q}, ",
		c.Database.Driver, c.Database.Schema, c.Database.Table))
	b.WriteString(fmt.Sprintf("Load: {Atomic: %v, NumericType: %q}, ",
		c.Load.Atomic, c.Load.NumericType))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
