// Package address turns a playback request into a provider-specific URL.
package address

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/catalog"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/key"
	"github.com/vidrelay/vidrelay/log"
)

var (
	ErrUnsupportedContentType = errors.New("provider does not support this content type")
	ErrInvalidEpisodeInfo     = content.ErrInvalidEpisodeInfo
)

// Error ties a build failure to the provider it happened for.
type Error struct {
	ProviderID string
	Type       content.Type
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("build address for %s (%s): %s", e.ProviderID, e.Type, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Builder builds addresses against a catalog.
type Builder struct {
	catalog *catalog.Catalog
	strict  bool
}

// New returns a lenient Builder: bad season/episode values are clamped to 1.
func New(c *catalog.Catalog) *Builder {
	return &Builder{catalog: c}
}

// FromConfig returns a Builder honouring address.strict_episodes.
func FromConfig(c *catalog.Catalog) *Builder {
	return New(c).Strict(viper.GetBool(key.AddressStrictEpisodes))
}

// Strict returns a copy of b that rejects bad season/episode values instead of clamping them.
func (b *Builder) Strict(strict bool) *Builder {
	return &Builder{catalog: b.catalog, strict: strict}
}

// Build returns the address of req on providerID.
//
// Unknown providers fail with catalog.ErrNotFound. A provider that does not
// serve req.Type fails with ErrUnsupportedContentType.
func (b *Builder) Build(req content.Request, providerID string) (string, error) {
	d, err := b.catalog.Describe(providerID)
	if err != nil {
		return "", err
	}

	if !d.Supports(req.Type) {
		return "", &Error{ProviderID: d.ID, Type: req.Type, Err: ErrUnsupportedContentType}
	}

	target, err := req.Classify(b.strict)
	if err != nil {
		return "", &Error{ProviderID: d.ID, Type: req.Type, Err: err}
	}

	if e, ok := target.(content.Episodic); ok && e.Clamped {
		log.WithFields(log.Fields{
			"provider": d.ID,
			"content":  req.ContentID,
			"season":   req.Season.OrElse(0),
			"episode":  req.Episode.OrElse(0),
		}).Warn("missing or non-positive season/episode clamped to 1")
	}

	raw := d.Endpoint
	switch d.Grammar {
	case catalog.GrammarPath, catalog.GrammarDashed:
		escaped := lo.Map(segments(d.Grammar, target), func(s string, _ int) string { return url.PathEscape(s) })
		raw = strings.TrimRight(raw, "/") + "/" + strings.Join(escaped, "/")
	case catalog.GrammarQuery:
		// parameters only, set below
	default:
		return "", &Error{ProviderID: d.ID, Type: req.Type, Err: fmt.Errorf("unknown grammar %q", d.Grammar)}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", &Error{ProviderID: d.ID, Type: req.Type, Err: err}
	}

	query := u.Query()
	if d.Grammar == catalog.GrammarQuery {
		setQuery(query, target)
	}

	if req.Autoplay && d.Features.Autoplay {
		query.Set("autoplay", "1")
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

func segments(grammar catalog.Grammar, target content.Target) []string {
	switch t := target.(type) {
	case content.Feature:
		return []string{"movie", t.ID}
	case content.Episodic:
		season, episode := strconv.Itoa(t.Season), strconv.Itoa(t.Episode)
		if grammar == catalog.GrammarDashed {
			return []string{"tv", t.ID, season + "-" + episode}
		}
		return []string{"tv", t.ID, season, episode}
	}
	panic(fmt.Sprintf("unhandled target %T", target))
}

func setQuery(query url.Values, target content.Target) {
	switch t := target.(type) {
	case content.Feature:
		query.Set("id", t.ID)
	case content.Episodic:
		query.Set("id", t.ID)
		query.Set("s", strconv.Itoa(t.Season))
		query.Set("e", strconv.Itoa(t.Episode))
	}
}
