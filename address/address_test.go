package address

import (
	"errors"
	"testing"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidrelay/vidrelay/catalog"
	"github.com/vidrelay/vidrelay/content"
)

func testCatalog() *catalog.Catalog {
	all := []content.Type{content.Movie, content.Series, content.Anime, content.Documentary}
	return catalog.MustNew(
		catalog.Descriptor{ID: "p", Rank: 1, Endpoint: "https://p.example/embed/", Types: all, Grammar: catalog.GrammarPath, Features: catalog.Features{Autoplay: true}},
		catalog.Descriptor{ID: "d", Rank: 2, Endpoint: "https://d.example/e", Types: all, Grammar: catalog.GrammarDashed},
		catalog.Descriptor{ID: "q", Rank: 3, Endpoint: "https://q.example/player", Types: all, Grammar: catalog.GrammarQuery, Features: catalog.Features{Autoplay: true}},
		catalog.Descriptor{ID: "m", Rank: 4, Endpoint: "https://m.example", Types: []content.Type{content.Movie}, Grammar: catalog.GrammarPath},
	)
}

func TestBuild(t *testing.T) {
	b := New(testCatalog())

	movie := content.Request{ContentID: "42", Type: content.Movie}
	episode := content.Request{ContentID: "tt1", Type: content.Series, Season: mo.Some(2), Episode: mo.Some(5)}

	Convey("Movies resolve to a single segment for every grammar", t, func() {
		So(must(b.Build(movie, "p")), ShouldEqual, "https://p.example/embed/movie/42")
		So(must(b.Build(movie, "d")), ShouldEqual, "https://d.example/e/movie/42")
		So(must(b.Build(movie, "q")), ShouldEqual, "https://q.example/player?id=42")
	})

	Convey("Documentaries are addressed like movies", t, func() {
		doc := content.Request{ContentID: "7", Type: content.Documentary, Season: mo.Some(3)}
		So(must(b.Build(doc, "p")), ShouldEqual, "https://p.example/embed/movie/7")
	})

	Convey("Episodes resolve to id, season and episode", t, func() {
		So(must(b.Build(episode, "p")), ShouldEqual, "https://p.example/embed/tv/tt1/2/5")
		So(must(b.Build(episode, "d")), ShouldEqual, "https://d.example/e/tv/tt1/2-5")
		So(must(b.Build(episode, "q")), ShouldEqual, "https://q.example/player?e=5&id=tt1&s=2")
	})

	Convey("Anime uses the episodic shape", t, func() {
		anime := content.Request{ContentID: "21", Type: content.Anime, Season: mo.Some(1), Episode: mo.Some(1000)}
		So(must(b.Build(anime, "d")), ShouldEqual, "https://d.example/e/tv/21/1-1000")
	})

	Convey("Autoplay is appended only when the provider supports it", t, func() {
		auto := movie
		auto.Autoplay = true
		So(must(b.Build(auto, "p")), ShouldEqual, "https://p.example/embed/movie/42?autoplay=1")
		So(must(b.Build(auto, "q")), ShouldEqual, "https://q.example/player?autoplay=1&id=42")
		So(must(b.Build(auto, "d")), ShouldEqual, "https://d.example/e/movie/42")
	})

	Convey("Content ids are escaped", t, func() {
		odd := content.Request{ContentID: "a/b c", Type: content.Movie}
		So(must(b.Build(odd, "p")), ShouldEqual, "https://p.example/embed/movie/a%2Fb%20c")
		So(must(b.Build(odd, "q")), ShouldEqual, "https://q.example/player?id=a%2Fb+c")
	})

	Convey("Series with season 0 and no episode are clamped to 1/1", t, func() {
		broken := content.Request{ContentID: "tt9", Type: content.Series, Season: mo.Some(0)}
		So(must(b.Build(broken, "p")), ShouldEqual, "https://p.example/embed/tv/tt9/1/1")

		Convey("unless the builder is strict", func() {
			_, err := b.Strict(true).Build(broken, "p")
			So(errors.Is(err, ErrInvalidEpisodeInfo), ShouldBeTrue)
		})
	})

	Convey("Unsupported types fail with a typed error", t, func() {
		_, err := b.Build(episode, "m")
		So(errors.Is(err, ErrUnsupportedContentType), ShouldBeTrue)

		var aerr *Error
		So(errors.As(err, &aerr), ShouldBeTrue)
		So(aerr.ProviderID, ShouldEqual, "m")
		So(aerr.Type, ShouldEqual, content.Series)
	})

	Convey("Unknown providers fail with catalog.ErrNotFound", t, func() {
		_, err := b.Build(movie, "nope")
		So(errors.Is(err, catalog.ErrNotFound), ShouldBeTrue)
	})
}

func must(s string, err error) string {
	So(err, ShouldBeNil)
	return s
}
