package environment

import (
	"fmt"
	"strings"
)

// EnvVar is the environment variable that selects an environment for a
// single invocation without changing the persisted selection.
const EnvVar = "CALSYNC_ENVIRONMENT"

// ID names a deployment target.
type ID string

const (
	Dev     ID = "dev"
	Staging ID = "staging"
	Prod    ID = "prod"
)

// Default is the environment used when nothing has been selected yet.
const Default = Prod

// Config describes one deployment target. Values are immutable.
type Config struct {
	// Name is the registry key for this environment
	Name ID `json:"name" yaml:"name"`
	// DisplayName is the human readable label shown in listings
	DisplayName string `json:"displayName" yaml:"displayName"`
	// BaseURL is the server address requests for this environment go to
	BaseURL string `json:"baseUrl" yaml:"baseUrl"`
}

// registry is ordered; listings follow this order.
var registry = []Config{
	{
		Name:        Dev,
		DisplayName: "Development",
		BaseURL:     "https://heron-selected-literally.ngrok-free.app",
	},
	{
		Name:        Staging,
		DisplayName: "Staging",
		BaseURL:     "https://staging-calendar.witcc.dev",
	},
	{
		Name:        Prod,
		DisplayName: "Production",
		BaseURL:     "https://server-calendar.witcc.dev",
	},
}

// UnknownEnvironmentError is returned when an ID is not in the registry.
type UnknownEnvironmentError struct {
	Name string
}

func (e *UnknownEnvironmentError) Error() string {
	return fmt.Sprintf("unknown environment %q (valid: %s)", e.Name, strings.Join(Names(), ", "))
}

// All returns every registered environment in registry order.
func All() []Config {
	out := make([]Config, len(registry))
	copy(out, registry)
	return out
}

// Names returns the registered IDs as strings, for completion and messages.
func Names() []string {
	names := make([]string, len(registry))
	for i, cfg := range registry {
		names[i] = string(cfg.Name)
	}
	return names
}

// Lookup returns the configuration for id.
func Lookup(id ID) (Config, bool) {
	for _, cfg := range registry {
		if cfg.Name == id {
			return cfg, true
		}
	}
	return Config{}, false
}

// Get is Lookup returning an error for unknown IDs.
func Get(id ID) (Config, error) {
	cfg, ok := Lookup(id)
	if !ok {
		return Config{}, &UnknownEnvironmentError{Name: string(id)}
	}
	return cfg, nil
}

// IsValid reports whether id is registered.
func IsValid(id ID) bool {
	_, ok := Lookup(id)
	return ok
}

// Parse normalizes user input to a registered ID. Display names are
// accepted case-insensitively.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	for _, cfg := range registry {
		if strings.EqualFold(s, string(cfg.Name)) || strings.EqualFold(s, cfg.DisplayName) {
			return cfg.Name, nil
		}
	}
	return "", &UnknownEnvironmentError{Name: s}
}
