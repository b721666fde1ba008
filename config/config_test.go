package config

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/filesystem"
	"github.com/vidrelay/vidrelay/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.IsSet(name) || viper.Get(name) != nil, ShouldBeTrue)
			}
			So(viper.GetInt(key.ThrottleCapacity), ShouldEqual, 5)
			So(viper.GetFloat64(key.ThrottleRefillRate), ShouldEqual, 1.0)
			So(viper.GetDuration(key.ProbeTimeout), ShouldEqual, 10*time.Second)
			So(viper.GetString(key.PreferenceBackend), ShouldEqual, "file")
		})

		Convey("Out of range values are rejected", func() {
			viper.Set(key.ThrottleCapacity, 0)
			defer viper.Set(key.ThrottleCapacity, 5)

			err := Setup()
			So(errors.Is(err, ErrInvalidValue), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, key.ThrottleCapacity)
		})

		Convey("Unknown preference backends are rejected", func() {
			viper.Set(key.PreferenceBackend, "redis")
			defer viper.Set(key.PreferenceBackend, "file")

			So(errors.Is(Setup(), ErrInvalidValue), ShouldBeTrue)
		})

		Convey("The config file lives in the config directory", func() {
			So(Path(), ShouldEndWith, "vidrelay.toml")
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("throttle.refill_rate"), ShouldEqual, "throttle_refill_rate")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		field := Default[key.ThrottleCapacity]

		Convey("Env should carry the application prefix", func() {
			So(field.Env(), ShouldEqual, "VIDRELAY_THROTTLE_CAPACITY")
		})

		Convey("JSON should expose the type name", func() {
			data, err := field.MarshalJSON()
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"type":"int"`)
		})
	})

	Convey("The catalog providers key is not bound to the environment", t, func() {
		So(EnvExposed, ShouldNotContain, key.CatalogProviders)
	})
}
