// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/color"
	"github.com/vidrelay/vidrelay/constant"
	"github.com/vidrelay/vidrelay/key"
	"github.com/vidrelay/vidrelay/style"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []string:
		return "[]string"
	case []map[string]any:
		return "[]table"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string, env bool) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		if env {
			EnvExposed = append(EnvExposed, k)
		}
	}

	register(key.CatalogProviders, []map[string]any{}, "Provider descriptors replacing the built-in catalog.\nType \"vidrelay sources schema\" for the expected shape", false)
	register(key.AddressStrictEpisodes, false, "Reject series and anime requests with a missing or non-positive season/episode\ninstead of clamping them to 1", true)
	register(key.ThrottleCapacity, 5, "Maximum number of automatic provider retries that can happen back to back", true)
	register(key.ThrottleRefillRate, 1.0, "Automatic provider retries regained per second", true)
	register(key.PreferenceBackend, "file", "Where remembered providers are stored.\nAvailable options are: file, bolt, memory", true)
	register(key.PreferencePerType, false, "Remember one provider per content type instead of one per scope", true)
	register(key.ProbeEnabled, true, "Probe addresses to detect unreachable providers automatically", true)
	register(key.ProbeTimeout, 10*time.Second, "How long a single probe may take before the provider counts as failed", true)
	register(key.ResolveMaxWait, 30*time.Second, "Upper bound on the total time \"vidrelay resolve --probe\" spends waiting for retry tokens", true)
	register(key.ServerAddress, ":5000", "Listen address of the resolution service", true)
	register(key.ServerSessionTTL, 30*time.Minute, "Sessions untouched for this long are discarded", true)
	register(key.WatchOpenOnSettle, true, "Open the address in the browser once a provider settles", true)
	register(key.WatchBrowser, "", "Application used to open addresses. Empty means the system default", true)
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)", true)
	register(key.LogsWrite, false, "Write logs", true)
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace", true)
	register(key.LogsJson, false, "Use json format for logs", true)
	register(key.CliColored, true, "Enable colored CLI output", true)
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
