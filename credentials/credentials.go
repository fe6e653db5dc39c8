// Package credentials resolves provider API keys from a credentials.toml
// file, falling back to the environment.
//
// The file is a set of provider tables:
//
//	[anthropic]
//	api_key = "sk-ant-..."
//
//	[llm]
//	api_key = "shared fallback key"
//
// A provider's key is looked up in its own table first, then the [llm]
// table, then the provider's conventional environment variable.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// fallbackSection is the table consulted when a provider has no table of
// its own.
const fallbackSection = "llm"

// ErrInsecurePermissions is returned when the credentials file is readable
// beyond owner, or writable at all.
var ErrInsecurePermissions = fmt.Errorf("credentials file has insecure permissions")

// Store holds API keys by normalized provider name.
type Store struct {
	keys map[string]string
}

// StandardPaths returns the candidate credential file locations, highest
// priority first.
func StandardPaths() []string {
	paths := []string{"credentials.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "llmkit", "credentials.toml"),
			filepath.Join(home, ".llmkit", "credentials.toml"))
	}
	return paths
}

// Load reads the first credentials file found among StandardPaths and
// returns it with the path it came from. A missing file is not an error:
// the Store is nil and lookups fall through to the environment.
func Load() (*Store, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		store, err := LoadFile(path)
		if err != nil {
			return nil, path, err
		}
		return store, path, nil
	}
	return nil, "", nil
}

// LoadFile reads one credentials file. The file must be mode 0400: keys
// should be neither visible to the group nor writable in place.
func LoadFile(path string) (*Store, error) {
	if err := checkMode(path); err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, err
	}

	store := &Store{keys: make(map[string]string)}
	for name, section := range raw {
		table, ok := section.(map[string]interface{})
		if !ok {
			continue
		}
		if key, _ := table["api_key"].(string); key != "" {
			store.keys[normalize(name)] = key
		}
	}
	return store, nil
}

// APIKey resolves the key for a provider: its own table, then [llm], then
// the provider's environment variable. Safe on a nil Store.
func (s *Store) APIKey(provider string) string {
	if s != nil {
		if key := s.keys[normalize(provider)]; key != "" {
			return key
		}
		if key := s.keys[fallbackSection]; key != "" {
			return key
		}
	}
	return os.Getenv(envVar(provider))
}

// checkMode rejects credential files that are not owner read-only.
func checkMode(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0400 {
		return fmt.Errorf("%w: %s has mode %04o (must be 0400)",
			ErrInsecurePermissions, path, mode)
	}
	return nil
}

// normalize folds provider spellings (case, dashes) onto one table name.
func normalize(provider string) string {
	return strings.ToLower(strings.ReplaceAll(provider, "-", ""))
}

// envVar returns the conventional environment variable for a provider.
func envVar(provider string) string {
	switch normalize(provider) {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai", "openaicompat":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	}
	return strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_API_KEY"
}
