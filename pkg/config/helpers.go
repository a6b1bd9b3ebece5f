package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/fetchd/pkg/errors"
)

// SetValue sets a configuration value by key. Keys are the YAML names of the
// settings, e.g. chunk_size or progress_interval. Durations use time.ParseDuration
// syntax. The result is not validated; call Validate before saving.
func (c *Config) SetValue(key, value string) error {
	field, ok := settingsField(&c.Settings, key)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}

	switch field.Interface().(type) {
	case time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w for %s: %w", errors.ErrConfigValue, key, err)
		}
		field.SetInt(int64(d))
	case string:
		field.SetString(value)
	case int, int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w for %s: %w", errors.ErrConfigValue, key, err)
		}
		field.SetInt(n)
	default:
		return fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}
	return nil
}

// GetValue returns the value of a configuration key as a string.
func (c *Config) GetValue(key string) (string, error) {
	if key == "version" {
		return c.Version, nil
	}
	field, ok := settingsField(&c.Settings, key)
	if !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}
	return formatValue(field), nil
}

// Keys returns the settable configuration keys in sorted order.
func Keys() []string {
	t := reflect.TypeOf(Settings{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := yamlKey(t.Field(i)); key != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// ToMap returns every setting keyed by its YAML name.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := map[string]string{"version": c.Version}

	v := reflect.ValueOf(c.Settings)
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		if key := yamlKey(t.Field(i)); key != "" {
			result[key] = formatValue(v.Field(i))
		}
	}
	return result
}

func settingsField(s *Settings, key string) (reflect.Value, bool) {
	v := reflect.ValueOf(s).Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		if yamlKey(t.Field(i)) == key {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// yamlKey handles yaml tags with options (e.g., "downloads_dir,omitempty").
func yamlKey(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	if tag == "" || tag == "-" {
		return ""
	}
	return strings.Split(tag, ",")[0]
}

func formatValue(v reflect.Value) string {
	if d, ok := v.Interface().(time.Duration); ok {
		return d.String()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.String:
		return v.String()
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
