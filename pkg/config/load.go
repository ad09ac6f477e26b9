package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/clevertap-source/pkg/client"
)

// Load reads a configuration file, expands ${VAR} references from the
// environment, applies defaults and validates the result.
// Files ending in .yaml or .yml are parsed as YAML, anything else as JSON.
func Load(path string, now time.Time) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator's command line
	if err != nil {
		return Config{}, client.Wrap(err, client.KindConfigInvalid, "read config file")
	}

	data = []byte(expandEnv(string(data)))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(data, now)
	default:
		return Parse(data, now)
	}
}

// Parse decodes a JSON configuration, applies defaults and validates it.
func Parse(data []byte, now time.Time) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, decodeError(err)
	}
	return finish(cfg, now)
}

func parseYAML(data []byte, now time.Time) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, decodeError(err)
	}
	return finish(cfg, now)
}

func finish(cfg Config, now time.Time) (Config, error) {
	cfg = cfg.WithDefaults(now)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeError hides the decoder's message when it might quote input values.
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return client.Errorf(client.KindConfigInvalid,
			"config field %s must be of type %s", typeErr.Field, typeErr.Type)
	}
	return client.NewError(client.KindConfigInvalid, "config is not a valid document")
}

// expandEnv replaces ${NAME} with the value of the environment variable
// NAME. A bare $ is left alone so passcodes may contain it.
func expandEnv(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			b.WriteString(content)
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			b.WriteString(content)
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	return b.String()
}
