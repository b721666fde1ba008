package catalog

import (
	"errors"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/key"
)

func ids(ds []Descriptor) []string {
	return lo.Map(ds, func(d Descriptor, _ int) string { return d.ID })
}

func descriptor(id string, rank int, types ...content.Type) Descriptor {
	return Descriptor{
		ID:       id,
		Name:     "Provider " + id,
		Rank:     rank,
		Endpoint: "https://" + id + ".example/embed",
		Types:    types,
		Grammar:  GrammarPath,
	}
}

func TestOrdering(t *testing.T) {
	Convey("Given providers out of order with a rank tie", t, func() {
		c := MustNew(
			descriptor("c", 3, content.Movie),
			descriptor("b", 1, content.Movie, content.Series),
			descriptor("a", 1, content.Series),
			descriptor("d", 2, content.Anime),
		)

		Convey("All is ordered by rank then id", func() {
			So(ids(c.All()), ShouldResemble, []string{"a", "b", "d", "c"})
		})

		Convey("Providers filters by type and keeps the order", func() {
			So(ids(c.Providers(content.Movie)), ShouldResemble, []string{"b", "c"})
			So(ids(c.Providers(content.Series)), ShouldResemble, []string{"a", "b"})
			So(c.Providers(content.Documentary), ShouldBeEmpty)
		})

		Convey("Default is the first supported provider", func() {
			d, err := c.Default(content.Movie)
			So(err, ShouldBeNil)
			So(d.ID, ShouldEqual, "b")

			_, err = c.Default(content.Documentary)
			So(errors.Is(err, ErrNoProviders), ShouldBeTrue)
		})

		Convey("Ordinals and labels follow the full order", func() {
			So(c.Ordinal("a"), ShouldEqual, 1)
			So(c.Ordinal("c"), ShouldEqual, 4)
			So(c.Ordinal("zzz"), ShouldEqual, 0)
			So(c.Label("d"), ShouldEqual, "Source 3")
			So(c.Label("zzz"), ShouldBeEmpty)
		})
	})
}

func TestDescribe(t *testing.T) {
	Convey("Given the builtin catalog", t, func() {
		c := MustNew(Builtin()...)

		Convey("Known ids are described", func() {
			d, err := c.Describe("kaze")
			So(err, ShouldBeNil)
			So(d.Grammar, ShouldEqual, GrammarQuery)
		})

		Convey("Unknown ids fail with a suggestion", func() {
			_, err := c.Describe("lumn")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)

			var nf *NotFoundError
			So(errors.As(err, &nf), ShouldBeTrue)
			So(nf.Suggestion, ShouldEqual, "lumen")
		})

		Convey("Match finds providers by id or name", func() {
			So(ids(c.Match("hrb")), ShouldResemble, []string{"harbor"})
			So(ids(c.Match("VIDN")), ShouldResemble, []string{"nest"})
		})

		Convey("Every content type has at least one builtin provider", func() {
			for _, typ := range content.Types() {
				So(c.Providers(typ), ShouldNotBeEmpty)
			}
		})
	})
}

func TestValidation(t *testing.T) {
	Convey("Construction rejects bad descriptors", t, func() {
		cases := map[string]Descriptor{
			"empty id":       descriptor("", 1, content.Movie),
			"no types":       descriptor("x", 1),
			"unknown type":   descriptor("x", 1, content.Type("podcast")),
			"bad grammar":    {ID: "x", Endpoint: "https://x.example", Types: []content.Type{content.Movie}, Grammar: "slashes"},
			"relative url":   {ID: "x", Endpoint: "/embed", Types: []content.Type{content.Movie}, Grammar: GrammarPath},
			"query endpoint": {ID: "x", Endpoint: "https://x.example/?a=1", Types: []content.Type{content.Movie}, Grammar: GrammarPath},
		}

		for name, d := range cases {
			_, err := New(d)
			So(errors.Is(err, ErrInvalidDescriptor), ShouldBeTrue)
			_ = name
		}

		_, err := New(descriptor("x", 1, content.Movie), descriptor("x", 2, content.Movie))
		So(errors.Is(err, ErrInvalidDescriptor), ShouldBeTrue)
	})
}

func TestLoad(t *testing.T) {
	Convey("Given no configured providers", t, func() {
		viper.Set(key.CatalogProviders, []map[string]any{})

		Convey("Load falls back to the builtin catalog", func() {
			c, err := Load()
			So(err, ShouldBeNil)
			So(c.Len(), ShouldEqual, len(Builtin()))
		})
	})

	Convey("Given configured providers", t, func() {
		viper.Set(key.CatalogProviders, []map[string]any{
			{"id": "one", "rank": 2, "endpoint": "https://one.example/", "types": []string{"Movie"}, "grammar": "path"},
			{"id": "two", "rank": 1, "endpoint": "https://two.example", "types": []string{"series", "anime"}, "grammar": "query", "autoplay": true},
		})
		defer viper.Set(key.CatalogProviders, []map[string]any{})

		Convey("They replace the builtin catalog", func() {
			c, err := Load()
			So(err, ShouldBeNil)
			So(ids(c.All()), ShouldResemble, []string{"two", "one"})

			one, _ := c.Describe("one")
			So(one.Endpoint, ShouldEqual, "https://one.example")
			So(one.Types, ShouldResemble, []content.Type{content.Movie})

			two, _ := c.Describe("two")
			So(two.Features.Autoplay, ShouldBeTrue)
		})
	})
}
