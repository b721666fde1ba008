package scope

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidrelay/vidrelay/filesystem"
	"github.com/zalando/go-keyring"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestDevice(t *testing.T) {
	Convey("Given a working keyring", t, func() {
		keyring.MockInit()
		_ = Forget()

		Convey("Device generates a uuid once and keeps returning it", func() {
			first, err := Device()
			So(err, ShouldBeNil)
			_, perr := uuid.Parse(first)
			So(perr, ShouldBeNil)

			second, err := Device()
			So(err, ShouldBeNil)
			So(second, ShouldEqual, first)
		})

		Convey("Forget makes Device generate a new scope", func() {
			first, _ := Device()
			So(Forget(), ShouldBeNil)
			second, _ := Device()
			So(second, ShouldNotEqual, first)
		})
	})

	Convey("Given a keyring that always fails", t, func() {
		keyring.MockInitWithError(errors.New("no dbus"))
		_ = Forget()

		Convey("Device falls back to the scope file and stays stable", func() {
			first, err := Device()
			So(err, ShouldBeNil)
			So(first, ShouldNotBeEmpty)

			second, err := Device()
			So(err, ShouldBeNil)
			So(second, ShouldEqual, first)
		})
	})
}

func TestResolve(t *testing.T) {
	Convey("An explicit scope wins", t, func() {
		got, err := Resolve("  living-room ")
		So(err, ShouldBeNil)
		So(got, ShouldEqual, "living-room")
	})
}
