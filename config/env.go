package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Environment variables are named <envPrefix>_<tag>, e.g. PROGRESSKIT_LOG_LEVEL.
// Tags carry only the suffix so the prefix lives in one place.
const envPrefix = "PROGRESSKIT"

var durationType = reflect.TypeOf(time.Duration(0))

// loadFromEnv overlays environment variables onto cfg. Unset and empty
// variables leave the existing value in place.
func loadFromEnv(cfg *Config) error {
	return bindEnv(reflect.ValueOf(cfg).Elem(), envPrefix)
}

func bindEnv(v reflect.Value, prefix string) error {
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("cannot bind environment into %s", v.Kind())
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct {
			if err := bindEnv(field, prefix); err != nil {
				return err
			}
			continue
		}
		tag := t.Field(i).Tag.Get("env")
		if tag == "" {
			continue
		}
		name := prefix + "_" + tag
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		if err := assign(field, raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// assign parses raw into the field. Only the kinds actually used by config
// sections are supported; a new field of another kind fails loudly here.
func assign(field reflect.Value, raw string) error {
	if !field.CanSet() {
		return fmt.Errorf("field is not settable")
	}
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q", raw)
		}
		field.SetInt(int64(d))
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool %q", raw)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(n)
	case reflect.Slice:
		return assignList(field, raw)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// assignList splits a comma separated value into a string slice, dropping
// empty entries.
func assignList(field reflect.Value, raw string) error {
	if field.Type().Elem().Kind() != reflect.String {
		return fmt.Errorf("unsupported slice of %s", field.Type().Elem().Kind())
	}
	parts := strings.Split(raw, ",")
	out := reflect.MakeSlice(field.Type(), 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = reflect.Append(out, reflect.ValueOf(p))
		}
	}
	field.Set(out)
	return nil
}
