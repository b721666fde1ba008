package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/vidrelay/vidrelay/content"
)

// Grammar names the address shape a provider understands.
type Grammar string

const (
	// GrammarPath addresses {endpoint}/movie/{id} and {endpoint}/tv/{id}/{s}/{e}.
	GrammarPath Grammar = "path"
	// GrammarDashed addresses {endpoint}/movie/{id} and {endpoint}/tv/{id}/{s}-{e}.
	GrammarDashed Grammar = "dashed"
	// GrammarQuery addresses {endpoint}?id={id} and {endpoint}?id={id}&s={s}&e={e}.
	GrammarQuery Grammar = "query"
)

// Grammars lists every known grammar.
func Grammars() []Grammar {
	return []Grammar{GrammarPath, GrammarDashed, GrammarQuery}
}

// Features are optional capabilities of a provider.
type Features struct {
	Autoplay bool `json:"autoplay"`
}

// Descriptor describes one provider. Descriptors are immutable once they are in a Catalog.
type Descriptor struct {
	ID       string
	Name     string
	Rank     int
	Endpoint string
	Types    []content.Type
	Grammar  Grammar
	Features Features
}

// Supports reports whether the provider serves content of type t.
func (d Descriptor) Supports(t content.Type) bool {
	return lo.Contains(d.Types, t)
}

func (d Descriptor) String() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

func (d Descriptor) validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDescriptor)
	}
	if !lo.Contains(Grammars(), d.Grammar) {
		return fmt.Errorf("%w: %s: unknown grammar %q", ErrInvalidDescriptor, d.ID, d.Grammar)
	}
	if len(d.Types) == 0 {
		return fmt.Errorf("%w: %s: no content types", ErrInvalidDescriptor, d.ID)
	}
	for _, t := range d.Types {
		if !t.Valid() {
			return fmt.Errorf("%w: %s: unknown content type %q", ErrInvalidDescriptor, d.ID, t)
		}
	}

	u, err := url.Parse(d.Endpoint)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %s: endpoint %q is not an absolute url", ErrInvalidDescriptor, d.ID, d.Endpoint)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("%w: %s: endpoint %q must not carry a query or fragment", ErrInvalidDescriptor, d.ID, d.Endpoint)
	}

	return nil
}

// Entry is the configuration form of a Descriptor, as written under
// catalog.providers in the config file.
type Entry struct {
	ID       string   `mapstructure:"id" json:"id" jsonschema:"required,description=Opaque stable identifier"`
	Name     string   `mapstructure:"name" json:"name,omitempty" jsonschema:"description=Display label"`
	Rank     int      `mapstructure:"rank" json:"rank" jsonschema:"required,description=Trial order; lower goes first"`
	Endpoint string   `mapstructure:"endpoint" json:"endpoint" jsonschema:"required,format=uri"`
	Types    []string `mapstructure:"types" json:"types" jsonschema:"required,minItems=1,enum=movie,enum=series,enum=anime,enum=documentary"`
	Grammar  string   `mapstructure:"grammar" json:"grammar" jsonschema:"required,enum=path,enum=dashed,enum=query"`
	Autoplay bool     `mapstructure:"autoplay" json:"autoplay,omitempty"`
}

// Descriptor converts the entry, normalizing type and grammar names.
func (e Entry) Descriptor() (Descriptor, error) {
	types := make([]content.Type, 0, len(e.Types))
	for _, raw := range e.Types {
		t, err := content.ParseType(raw)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: %s: %w", ErrInvalidDescriptor, e.ID, err)
		}
		types = append(types, t)
	}

	d := Descriptor{
		ID:       strings.TrimSpace(e.ID),
		Name:     e.Name,
		Rank:     e.Rank,
		Endpoint: strings.TrimRight(e.Endpoint, "/"),
		Types:    lo.Uniq(types),
		Grammar:  Grammar(strings.ToLower(e.Grammar)),
		Features: Features{Autoplay: e.Autoplay},
	}
	return d, d.validate()
}
