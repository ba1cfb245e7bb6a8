package driven

// ConfigStore provides persistent key-value configuration.
// Keys use dot notation, e.g. "embedding.model".
type ConfigStore interface {
	// Get retrieves a raw configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" when absent.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 when absent.
	GetInt(key string) int

	// GetBool retrieves a boolean value, or false when absent.
	GetBool(key string) bool

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error
}
