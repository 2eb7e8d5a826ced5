package refresher

import (
	"os"
	"strings"
)

// AppKey is the property holding the application's declared name
const AppKey = "application.name"

// Environment looks up application properties
type Environment interface {
	Property(key string) string
}

// PropertyMap is an Environment backed by a map, falling back to OS environment
// variables named after the key, e.g. "application.name" -> "APPLICATION_NAME".
type PropertyMap map[string]string

func (p PropertyMap) Property(key string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return os.Getenv(EnvKey(key))
}

// EnvKey converts a property key to an environment variable name
func EnvKey(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}
