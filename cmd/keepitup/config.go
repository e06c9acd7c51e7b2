// Config loading for the keepitup CLI.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDataDir = "data_dir"

	// envPrefix prefixes the environment overrides of preference keys, for
	// example KEEPITUP_LOG_MAX_ENTRIES for log.max_entries.
	envPrefix = "KEEPITUP"
)

const configHeader = `# KeepItUp configuration
#
# Every key can be overridden by an environment variable named after the
# key, for example KEEPITUP_NOTIFICATION_TYPE for notification.type.
# data_dir is optional; --data-dir takes precedence over it.
`

// configDocument is the layout of config.yaml.
type configDocument struct {
	DataDir           string `yaml:"data_dir,omitempty"`
	types.Preferences `yaml:",inline"`
}

// defaultConfigYAML renders the default preferences as config.yaml content.
func defaultConfigYAML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(configHeader + "\n")
	if err := encodeYAML(&buf, configDocument{Preferences: types.DefaultPreferences()}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeYAML(buf *bytes.Buffer, v any) error {
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run. Every preference key
// has a default and an environment override.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// setDefaults registers the default preferences key by key so that
// environment variables can override keys missing from the file.
func setDefaults(v *viper.Viper) error {
	raw, err := yaml.Marshal(types.DefaultPreferences())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	return setNested(v, "", tree)
}

func setNested(v *viper.Viper, prefix string, tree map[string]any) error {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			if err := setNested(v, key, sub); err != nil {
				return err
			}
			continue
		}
		v.SetDefault(key, val)
		if err := v.BindEnv(key, envName(key)); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// preferencesFrom decodes and validates the preferences held by v.
func preferencesFrom(v *viper.Viper) (types.Preferences, error) {
	prefs := types.DefaultPreferences()
	if err := v.Unmarshal(&prefs); err != nil {
		return prefs, fmt.Errorf("%w: %w", types.ErrInvalidPreferences, err)
	}
	if err := prefs.Validate(); err != nil {
		return prefs, err
	}
	return prefs, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	content, err := defaultConfigYAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}
