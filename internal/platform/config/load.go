package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix starts every environment override, including the profile
// selector COLLAB_PROFILE.
const EnvPrefix = "COLLAB_"

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	dir string
}

// WithConfigDir reads the YAML layers from dir instead of ./configs.
func WithConfigDir(dir string) Option {
	return func(o *loadOptions) { o.dir = dir }
}

// Load builds the configuration for profile from four layers, later layers
// winning: built-in defaults, configs/base.yaml, configs/<profile>.yaml, and
// COLLAB_ environment variables. Env names map onto known keys first, so
// underscores inside a key survive:
//
//	COLLAB_SERVER_WRITE_TIMEOUT      -> server.write_timeout
//	COLLAB_PRESENCE_IDLE_AFTER       -> presence.idle_after
//	COLLAB_GATEWAY_ALLOWED_ORIGINS   -> gateway.allowed_origins (comma list)
//	COLLAB_CLIENT_RETRY_MAX_ATTEMPTS -> client.retry.max_attempts
//
// The result is validated before it is returned.
func Load(profile string, opts ...Option) (*Config, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	o := loadOptions{dir: "configs"}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")
	for key, val := range defaults() {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	for _, name := range []string{"base", profile} {
		path := filepath.Join(o.dir, name+".yaml")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s config %s: %w", name, path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envTransform(k),
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// envTransform maps COLLAB_A_B_C onto the koanf key it names. Keys already
// loaded are matched whole; unknown ones fall back to one level per
// underscore. Values for list keys are split on commas.
func envTransform(k *koanf.Koanf) func(string, string) (string, any) {
	known := make(map[string]string)
	for _, key := range k.Keys() {
		known[strings.ReplaceAll(key, ".", "_")] = key
	}

	return func(name, value string) (string, any) {
		name = strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		key, ok := known[name]
		if !ok {
			return strings.ReplaceAll(name, "_", "."), value
		}
		switch k.Get(key).(type) {
		case []any, []string:
			return key, splitList(value)
		}
		return key, value
	}
}

func splitList(s string) []string {
	out := []string{}
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validateProfile keeps the profile name from escaping the config directory.
func validateProfile(profile string) error {
	switch {
	case strings.TrimSpace(profile) == "":
		return errors.New("profile must not be empty")
	case strings.ContainsAny(profile, `/\`):
		return fmt.Errorf("profile must not contain path separators, got %q", profile)
	case strings.Contains(profile, ".."):
		return fmt.Errorf("profile must not contain path traversal, got %q", profile)
	}
	return nil
}
