// Package content models what the user asked to play.
//
// A Request is classified by its content type into one of two closed
// variants: a Feature (movies and documentaries, addressed by id alone) or an
// Episodic target (series and anime, addressed by id, season and episode).
package content

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Type is a kind of content a provider may serve.
type Type string

const (
	Movie       Type = "movie"
	Series      Type = "series"
	Anime       Type = "anime"
	Documentary Type = "documentary"
)

var (
	ErrUnknownType         = errors.New("unknown content type")
	ErrEmptyID             = errors.New("content id is empty")
	ErrInvalidEpisodeInfo  = errors.New("invalid season or episode")
	ErrMalformedCompoundID = errors.New("malformed content id")
)

// Types lists every content type in a stable order.
func Types() []Type {
	return []Type{Movie, Series, Anime, Documentary}
}

// ParseType accepts a type name case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !lo.Contains(Types(), t) {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// Valid reports whether t is one of Types.
func (t Type) Valid() bool {
	return lo.Contains(Types(), t)
}

// Episodic reports whether t is addressed by season and episode.
func (t Type) Episodic() bool {
	return t == Series || t == Anime
}

func (t Type) String() string {
	return string(t)
}

// Request is a single playback ask. It is never mutated after creation.
type Request struct {
	ContentID string
	Type      Type
	Season    mo.Option[int]
	Episode   mo.Option[int]
	Autoplay  bool
}

// Validate checks the parts of a request that no provider can fix.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ContentID) == "" {
		return ErrEmptyID
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, r.Type)
	}
	return nil
}

// Key identifies the piece of content a resolution session is about.
// Episodic keys use the clamped season and episode so that equivalent
// requests share a session.
func (r Request) Key() string {
	if !r.Type.Episodic() {
		return r.ContentID
	}
	return fmt.Sprintf("%s:%d:%d", r.ContentID, positive(r.Season), positive(r.Episode))
}

// Target is the closed set of addressable shapes.
type Target interface {
	isTarget()
	ContentID() string
}

// Feature is a movie or documentary.
type Feature struct {
	ID string
}

// Episodic is a single episode of a series or anime.
// Clamped is set when a missing or non-positive season/episode was replaced by 1.
type Episodic struct {
	ID      string
	Season  int
	Episode int
	Clamped bool
}

func (Feature) isTarget()  {}
func (Episodic) isTarget() {}

func (f Feature) ContentID() string  { return f.ID }
func (e Episodic) ContentID() string { return e.ID }

// Classify maps the request onto its Target.
// Missing or non-positive season/episode values are clamped to 1 unless
// strict is set, in which case ErrInvalidEpisodeInfo is returned.
func (r Request) Classify(strict bool) (Target, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	if !r.Type.Episodic() {
		return Feature{ID: r.ContentID}, nil
	}

	season, episode := positive(r.Season), positive(r.Episode)
	clamped := season != r.Season.OrElse(0) || episode != r.Episode.OrElse(0)
	if clamped && strict {
		return nil, fmt.Errorf("%w: season=%s episode=%s", ErrInvalidEpisodeInfo, show(r.Season), show(r.Episode))
	}

	return Episodic{
		ID:      r.ContentID,
		Season:  season,
		Episode: episode,
		Clamped: clamped,
	}, nil
}

// ParseID splits compound ids of the form "id", "id:season" or
// "id:season:episode".
func ParseID(raw string) (id string, season, episode mo.Option[int], err error) {
	parts := strings.Split(raw, ":")
	if len(parts) > 3 || parts[0] == "" {
		err = fmt.Errorf("%w: %q", ErrMalformedCompoundID, raw)
		return
	}

	id = parts[0]
	parse := func(s string) (mo.Option[int], error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return mo.None[int](), fmt.Errorf("%w: %q", ErrMalformedCompoundID, raw)
		}
		return mo.Some(n), nil
	}

	if len(parts) > 1 {
		if season, err = parse(parts[1]); err != nil {
			return
		}
	}
	if len(parts) > 2 {
		if episode, err = parse(parts[2]); err != nil {
			return
		}
	}
	return
}

func positive(o mo.Option[int]) int {
	if v, ok := o.Get(); ok && v > 0 {
		return v
	}
	return 1
}

func show(o mo.Option[int]) string {
	if v, ok := o.Get(); ok {
		return strconv.Itoa(v)
	}
	return "none"
}
