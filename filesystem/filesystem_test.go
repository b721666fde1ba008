package filesystem

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func TestBackend(t *testing.T) {
	Convey("Given the filesystem backend", t, func() {
		Reset(SetMemMapFs)

		Convey("SetOsFs selects the real filesystem", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
		})

		Convey("SetMemMapFs selects a fresh memory filesystem", func() {
			SetMemMapFs()
			So(API().WriteFile("/a", []byte("x"), 0o644), ShouldBeNil)
			SetMemMapFs()

			exists, err := API().Exists("/a")
			So(err, ShouldBeNil)
			So(exists, ShouldBeFalse)
		})

		Convey("Use installs any afero filesystem", func() {
			ro := afero.NewReadOnlyFs(afero.NewMemMapFs())
			Use(ro)
			So(API().WriteFile("/a", []byte("x"), 0o644), ShouldNotBeNil)
		})

		Convey("GacheFs writes through the active backend", func() {
			SetMemMapFs()
			So(GacheFs{}.MkdirAll("/cache", 0o755), ShouldBeNil)

			f, err := GacheFs{}.OpenFile("/cache/entry.json", os.O_CREATE|os.O_WRONLY, 0o644)
			So(err, ShouldBeNil)
			_, err = f.Write([]byte("{}"))
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			data, err := API().ReadFile("/cache/entry.json")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "{}")
		})
	})
}
