// Package config registers every setting with viper and loads the config file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/constant"
	"github.com/vidrelay/vidrelay/filesystem"
	"github.com/vidrelay/vidrelay/icon"
	"github.com/vidrelay/vidrelay/key"
	"github.com/vidrelay/vidrelay/preference"
	"github.com/vidrelay/vidrelay/where"
)

// EnvKeyReplacer maps config keys to environment variable suffixes.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// ErrInvalidValue is wrapped by Setup when a loaded value is out of range.
var ErrInvalidValue = errors.New("invalid configuration value")

// Path is where the config file is read from and written to.
func Path() string {
	return filepath.Join(where.Config(), constant.App+".toml")
}

// Setup registers defaults, binds the environment and reads the config file
// when there is one.
func Setup() error {
	viper.SetConfigName(constant.App)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.App)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	return validate()
}

func validate() error {
	invalid := func(k string, format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidValue, k, fmt.Sprintf(format, args...))
	}

	if c := viper.GetInt(key.ThrottleCapacity); c < 1 {
		return invalid(key.ThrottleCapacity, "must be at least 1, got %d", c)
	}
	if r := viper.GetFloat64(key.ThrottleRefillRate); r <= 0 {
		return invalid(key.ThrottleRefillRate, "must be positive, got %v", r)
	}
	if b := strings.ToLower(viper.GetString(key.PreferenceBackend)); !lo.Contains(preference.Backends(), b) {
		return invalid(key.PreferenceBackend, "%q is not one of %s", b, strings.Join(preference.Backends(), ", "))
	}
	if v := viper.GetString(key.IconsVariant); !lo.Contains(icon.AvailableVariants(), v) {
		return invalid(key.IconsVariant, "%q is not one of %s", v, strings.Join(icon.AvailableVariants(), ", "))
	}
	if d := viper.GetDuration(key.ProbeTimeout); d <= 0 {
		return invalid(key.ProbeTimeout, "must be positive, got %s", d)
	}

	return nil
}
