package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/boxaug/pkg/errors"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "BOXAUG"

// Formats accepted by [Load] and [Encode].
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// LoadDotEnv loads KEY=value pairs from a .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", path)
	}
	return nil
}

// Load reads the configuration at path and applies environment overrides.
// An empty path yields the defaults plus overrides. The result is
// validated.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if err := readFile(v, path); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", displayName(path))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	format, err := formatOf(path)
	if err != nil {
		return err
	}
	if format == FormatTOML {
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if err := v.MergeConfigMap(m); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "merge %s", path)
		}
		return nil
	}

	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return nil
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfig,
		"unsupported config format %q (use .yaml, .yml, .json or .toml)", filepath.Ext(path))
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("rotation_lb", d.RotationLB)
	v.SetDefault("rotation_ub", d.RotationUB)
	v.SetDefault("h_shift_ratio", d.HShiftRatio)
	v.SetDefault("v_shift_ratio", d.VShiftRatio)
	v.SetDefault("v_shift_basis", d.VShiftBasis)
	v.SetDefault("noise_intensity", d.NoiseIntensity)
	v.SetDefault("rotation_prob", d.RotationProb)
	v.SetDefault("h_shift_prob", d.HShiftProb)
	v.SetDefault("v_shift_prob", d.VShiftProb)
	v.SetDefault("noise_prob", d.NoiseProb)
	v.SetDefault("h_flip_prob", d.HFlipProb)
	v.SetDefault("v_flip_prob", d.VFlipProb)
	v.SetDefault("drop_occluded", d.DropOccluded)
	v.SetDefault("order", d.Order)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("jpeg_quality", d.JPEGQuality)
}

// Encode writes cfg to w in the given format.
func Encode(w io.Writer, cfg Config, format string) error {
	switch format {
	case "", FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode toml")
		}
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "unsupported output format %q (use yaml or toml)", format)
}

func displayName(path string) string {
	if path == "" {
		return "environment"
	}
	return path
}
