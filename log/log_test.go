package log

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/filesystem"
	"github.com/vidrelay/vidrelay/key"
	"github.com/vidrelay/vidrelay/where"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Given logging is disabled", t, func() {
		viper.Set(key.LogsWrite, false)
		So(Setup(), ShouldBeNil)
		So(Enabled(), ShouldBeFalse)

		Convey("Emissions should be no-ops", func() {
			So(func() { Info("ignored") }, ShouldNotPanic)
			So(func() { WithFields(Fields{"provider": "x"}).Warn("ignored") }, ShouldNotPanic)
		})
	})

	Convey("Given logging is enabled", t, func() {
		viper.Set(key.LogsWrite, true)
		viper.Set(key.LogsLevel, "debug")
		defer viper.Set(key.LogsWrite, false)

		So(Setup(), ShouldBeNil)
		So(Enabled(), ShouldBeTrue)

		Convey("A daily log file should exist", func() {
			name := time.Now().Format("2006-01-02") + ".log"
			So(lo.Must(filesystem.API().Exists(filepath.Join(where.Logs(), name))), ShouldBeTrue)
		})
	})
}
