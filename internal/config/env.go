package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// EnvPrefix namespaces the service's variables. GRADEBOOK_DB_HOST wins over DB_HOST.
const EnvPrefix = "GRADEBOOK_"

// lookupEnv returns the prefixed variable if set, else the bare one
func lookupEnv(name string) (string, string, bool) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		return EnvPrefix + name, v, true
	}
	v, ok := os.LookupEnv(name)
	return name, v, ok
}

// applyEnv overrides every `env`-tagged field of target whose variable is set
// and returns the names of the variables it used, never their values.
func applyEnv(target interface{}) ([]string, error) {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("config target must be a pointer to a struct, got %T", target)
	}

	var applied []string
	if err := applyEnvFields(val.Elem(), &applied); err != nil {
		return nil, err
	}
	return applied, nil
}

func applyEnvFields(val reflect.Value, applied *[]string) error {
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := typ.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnvFields(field, applied); err != nil {
				return err
			}
			continue
		}

		tag := sf.Tag.Get("env")
		if tag == "" || !field.CanSet() {
			continue
		}
		name, raw, ok := lookupEnv(tag)
		if !ok {
			continue
		}
		if err := setField(field, raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*applied = append(*applied, name)
	}
	return nil
}

// setField parses raw into one of the kinds Config uses
func setField(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}
