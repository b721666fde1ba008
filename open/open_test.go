package open

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAddress(t *testing.T) {
	Convey("Address refuses non-web schemes", t, func() {
		So(Address("file:///etc/passwd"), ShouldNotBeNil)
		So(Address("javascript:alert(1)"), ShouldNotBeNil)
		So(Address("://bad"), ShouldNotBeNil)
	})
}
