package content

import (
	"errors"
	"testing"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseType(t *testing.T) {
	Convey("ParseType", t, func() {
		Convey("Accepts known types in any case", func() {
			typ, err := ParseType(" Series ")
			So(err, ShouldBeNil)
			So(typ, ShouldEqual, Series)
		})

		Convey("Rejects unknown types", func() {
			_, err := ParseType("podcast")
			So(errors.Is(err, ErrUnknownType), ShouldBeTrue)
		})

		Convey("Only series and anime are episodic", func() {
			So(Series.Episodic(), ShouldBeTrue)
			So(Anime.Episodic(), ShouldBeTrue)
			So(Movie.Episodic(), ShouldBeFalse)
			So(Documentary.Episodic(), ShouldBeFalse)
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given a movie request", t, func() {
		req := Request{ContentID: "42", Type: Movie, Season: mo.Some(3)}

		Convey("It classifies as a feature and ignores the season", func() {
			target, err := req.Classify(false)
			So(err, ShouldBeNil)
			So(target, ShouldResemble, Feature{ID: "42"})
			So(req.Key(), ShouldEqual, "42")
		})
	})

	Convey("Given a series request with season 0 and no episode", t, func() {
		req := Request{ContentID: "tt1", Type: Series, Season: mo.Some(0)}

		Convey("Lenient classification clamps both to 1", func() {
			target, err := req.Classify(false)
			So(err, ShouldBeNil)
			So(target, ShouldResemble, Episodic{ID: "tt1", Season: 1, Episode: 1, Clamped: true})
		})

		Convey("Strict classification refuses", func() {
			_, err := req.Classify(true)
			So(errors.Is(err, ErrInvalidEpisodeInfo), ShouldBeTrue)
		})

		Convey("The key uses the clamped values", func() {
			So(req.Key(), ShouldEqual, "tt1:1:1")
		})
	})

	Convey("Given a complete anime request", t, func() {
		req := Request{ContentID: "21", Type: Anime, Season: mo.Some(2), Episode: mo.Some(7)}
		target, err := req.Classify(true)
		So(err, ShouldBeNil)
		So(target.(Episodic).Clamped, ShouldBeFalse)
		So(req.Key(), ShouldEqual, "21:2:7")
	})

	Convey("Requests without an id or with an unknown type are invalid", t, func() {
		_, err := Request{Type: Movie}.Classify(false)
		So(errors.Is(err, ErrEmptyID), ShouldBeTrue)

		_, err = Request{ContentID: "x", Type: "podcast"}.Classify(false)
		So(errors.Is(err, ErrUnknownType), ShouldBeTrue)
	})
}

func TestParseID(t *testing.T) {
	Convey("ParseID", t, func() {
		Convey("Splits id, season and episode", func() {
			id, s, e, err := ParseID("tt0944947:1:2")
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "tt0944947")
			So(s.MustGet(), ShouldEqual, 1)
			So(e.MustGet(), ShouldEqual, 2)
		})

		Convey("Leaves missing parts absent", func() {
			id, s, e, err := ParseID("tt123")
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "tt123")
			So(s.IsAbsent(), ShouldBeTrue)
			So(e.IsAbsent(), ShouldBeTrue)
		})

		Convey("Rejects garbage", func() {
			_, _, _, err := ParseID("tt1:x")
			So(errors.Is(err, ErrMalformedCompoundID), ShouldBeTrue)
			_, _, _, err = ParseID(":1:2")
			So(errors.Is(err, ErrMalformedCompoundID), ShouldBeTrue)
			_, _, _, err = ParseID("a:1:2:3")
			So(errors.Is(err, ErrMalformedCompoundID), ShouldBeTrue)
		})
	})
}
