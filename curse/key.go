package curse

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	keyEnv      = "CURSEFORGE_API_KEY"
	keyFileName = "minepack-key"
)

// LoadConfig builds the client configuration from the environment, falling
// back to an api_key line in the user config directory. A missing key is
// not an error here; the API rejects keyless requests and that surfaces as
// a registry failure where it can actually be handled.
func LoadConfig() Config {
	if key := os.Getenv(keyEnv); key != "" {
		return Config{APIKey: key}
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return Config{}
	}
	b, err := os.ReadFile(filepath.Join(dir, keyFileName))
	if err != nil {
		return Config{}
	}
	for _, line := range strings.Split(string(b), "\n") {
		if key, ok := strings.CutPrefix(line, "api_key="); ok {
			return Config{APIKey: strings.TrimSpace(key)}
		}
	}
	return Config{}
}
