package driving

import "github.com/custodia-labs/labtriage/internal/core/domain"

// SettingsService reads and updates application configuration.
type SettingsService interface {
	// Get returns the effective settings: stored values over defaults.
	Get() (*domain.AppSettings, error)

	// Set parses value for the typed key and persists it.
	Set(key, value string) error

	// Keys lists every recognised configuration key.
	Keys() []string

	// Path returns where settings are persisted.
	Path() string
}
