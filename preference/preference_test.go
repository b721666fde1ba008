package preference

import (
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func stores(t *testing.T) map[string]Store {
	bolt, err := NewBolt(filepath.Join(t.TempDir(), "preferences.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = bolt.Close() })

	return map[string]Store{
		BackendMemory: NewMemory(),
		BackendFile:   NewFile(filepath.Join("/prefs", t.Name(), "preferences.json")),
		BackendBolt:   bolt,
	}
}

func TestRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		store := store

		Convey("Given the "+name+" store", t, func() {
			Convey("An unknown scope is absent", func() {
				got, err := store.Get("nobody")
				So(err, ShouldBeNil)
				So(got.IsAbsent(), ShouldBeTrue)
			})

			Convey("Set then Get returns the provider", func() {
				So(store.Set("device-1", "b"), ShouldBeNil)
				got, err := store.Get("device-1")
				So(err, ShouldBeNil)
				So(got.MustGet(), ShouldEqual, "b")

				Convey("Set overwrites", func() {
					So(store.Set("device-1", "c"), ShouldBeNil)
					got, _ := store.Get("device-1")
					So(got.MustGet(), ShouldEqual, "c")
				})

				Convey("Clear then Get returns absent", func() {
					So(store.Clear("device-1"), ShouldBeNil)
					got, err := store.Get("device-1")
					So(err, ShouldBeNil)
					So(got.IsAbsent(), ShouldBeTrue)
				})
			})

			Convey("Clearing an absent scope is fine", func() {
				So(store.Clear("ghost"), ShouldBeNil)
			})

			Convey("List is ordered by scope", func() {
				So(store.Set("z", "a"), ShouldBeNil)
				So(store.Set("m", "b"), ShouldBeNil)
				records, err := store.List()
				So(err, ShouldBeNil)
				So(len(records), ShouldBeGreaterThanOrEqualTo, 2)

				var scopes []string
				for _, r := range records {
					scopes = append(scopes, r.Scope)
					So(r.UpdatedAt.IsZero(), ShouldBeFalse)
				}
				for i := 1; i < len(scopes); i++ {
					So(scopes[i-1] < scopes[i], ShouldBeTrue)
				}
			})

			Convey("Empty scopes are rejected", func() {
				So(errors.Is(store.Set(" ", "a"), ErrEmptyScope), ShouldBeTrue)
				_, err := store.Get("")
				So(errors.Is(err, ErrEmptyScope), ShouldBeTrue)
			})
		})
	}
}

func TestFilePersistence(t *testing.T) {
	Convey("Records written by one File store are seen by another on the same path", t, func() {
		path := filepath.Join("/persist", "preferences.json")
		So(NewFile(path).Set("s", "kaze"), ShouldBeNil)

		got, err := NewFile(path).Get("s")
		So(err, ShouldBeNil)
		So(got.MustGet(), ShouldEqual, "kaze")
	})
}

func TestBoltPersistence(t *testing.T) {
	Convey("Records survive reopening the database", t, func() {
		path := filepath.Join(t.TempDir(), "p.db")
		first, err := NewBolt(path)
		So(err, ShouldBeNil)
		So(first.Set("s", "lumen"), ShouldBeNil)
		So(first.Close(), ShouldBeNil)

		second, err := NewBolt(path)
		So(err, ShouldBeNil)
		defer second.Close()
		got, err := second.Get("s")
		So(err, ShouldBeNil)
		So(got.MustGet(), ShouldEqual, "lumen")
	})
}

func TestOpenAndKey(t *testing.T) {
	Convey("Open", t, func() {
		s, err := Open("memory")
		So(err, ShouldBeNil)
		So(s, ShouldHaveSameTypeAs, &Memory{})

		s, err = Open("FILE")
		So(err, ShouldBeNil)
		So(s, ShouldHaveSameTypeAs, &File{})

		_, err = Open("redis")
		So(errors.Is(err, ErrUnknownBackend), ShouldBeTrue)
	})

	Convey("Key", t, func() {
		So(Key("dev", content.Anime, false), ShouldEqual, "dev")
		So(Key("dev", content.Anime, true), ShouldEqual, "dev/anime")
	})
}
