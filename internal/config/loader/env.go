package loader

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"
)

// EnvLoader collects environment variables into a nested configuration map.
type EnvLoader struct {
	prefix  string            // e.g. "TELEOP_"
	mapping map[string]string // variable suffix -> config path
	lookup  func(string) (string, bool)
}

// NewEnvLoader creates a loader for variables starting with prefix.
// The prefix should include the trailing underscore (e.g., "TELEOP_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(),
		lookup:  os.LookupEnv,
	}
}

// NewEnvLoaderWithMapping creates a loader with custom variable mappings.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
		lookup:  os.LookupEnv,
	}
}

func defaultEnvMapping() map[string]string {
	return map[string]string{
		"LOG_LEVEL":      "logging.level",
		"LOG_FILE":       "logging.file",
		"PERIOD":         "loop.period",
		"SOURCE":         "input.source",
		"REPLAY":         "input.replay",
		"DEVICE":         "input.device",
		"HOLD_WINDOW":    "input.hold_window",
		"AUTO":           "auto.routine",
		"AUTO_DIR":       "auto.dir",
		"SCRIPTS":        "scripts.dir",
		"JOURNAL":        "journal.path",
		"JOURNAL_DRIVER": "journal.driver",
		"MOTOR_SPEED":    "robot.motor_speed",
		"DEADBAND":       "robot.deadband",
	}
}

// AddMapping maps the variable prefix+suffix to a config path.
func (l *EnvLoader) AddMapping(suffix, path string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[suffix] = path
}

// Variables returns the full variable names the loader reads, sorted.
func (l *EnvLoader) Variables() []string {
	out := make([]string, 0, len(l.mapping))
	for suffix := range l.mapping {
		out = append(out, l.prefix+suffix)
	}
	sort.Strings(out)
	return out
}

// Load reads the mapped variables. Empty values count as set.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for suffix, path := range l.mapping {
		if val, ok := l.lookup(l.prefix + suffix); ok {
			setByPath(config, path, parseValue(val))
		}
	}
	return config, nil
}

// parseValue converts a variable to the most specific TOML-compatible type.
// Durations stay strings; config fields parse them.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			next := make(map[string]any)
			current[part] = next
			current = next
		}
	}

	current[parts[len(parts)-1]] = value
}

// getByPath reads a value from a nested map using a dot-separated path.
func getByPath(data map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	current := data
	for i, part := range parts {
		v, ok := current[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		if current, ok = v.(map[string]any); !ok {
			return nil, false
		}
	}
	return nil, false
}
