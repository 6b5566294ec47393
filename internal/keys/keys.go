// Package keys handles API key storage and retrieval.
package keys

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// EnvVar is the environment variable consulted when no key is stored.
const EnvVar = "GEMINI_API_KEY"

// Provider is the single service lumina talks to.
const Provider = "gemini"

type Store struct {
	configDir string
}

type KeyEntry struct {
	Key string `json:"key"`
}

type Keys map[string]KeyEntry

func NewStore() (*Store, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	return &Store{configDir: configDir}, nil
}

// getConfigDir returns the platform-specific config directory.
func getConfigDir() (string, error) {
	// Allow override for testing
	if testDir := os.Getenv("LUMINA_CONFIG_DIR"); testDir != "" {
		return testDir, nil
	}

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "lumina"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "lumina"), nil
	default:
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "lumina"), nil
	}
}

func (s *Store) Path() string {
	return filepath.Join(s.configDir, "keys.json")
}

func (s *Store) load() (Keys, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return make(Keys), nil
		}
		return nil, err
	}

	var keys Keys
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse keys.json: %w", err)
	}
	return keys, nil
}

func (s *Store) save(keys Keys) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write keys.json: %w", err)
	}
	return nil
}

func (s *Store) Set(provider, key string) error {
	keys, err := s.load()
	if err != nil {
		return err
	}

	keys[provider] = KeyEntry{Key: key}
	return s.save(keys)
}

// Get returns the stored key for a provider, or "" when none exists.
func (s *Store) Get(provider string) (string, error) {
	keys, err := s.load()
	if err != nil {
		return "", err
	}
	return keys[provider].Key, nil
}

func (s *Store) Delete(provider string) error {
	keys, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := keys[provider]; !ok {
		return fmt.Errorf("no key found for %s", provider)
	}

	delete(keys, provider)
	return s.save(keys)
}

func (s *Store) List() ([]string, error) {
	keys, err := s.load()
	if err != nil {
		return nil, err
	}

	providers := make([]string, 0, len(keys))
	for provider := range keys {
		providers = append(providers, provider)
	}
	return providers, nil
}

// MaskKey returns a masked version of the key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// GetAPIKey resolves the Gemini API key: an explicit flag value wins, then
// the stored key, then the environment variable.
func GetAPIKey(explicitKey string) (string, string, error) {
	if explicitKey != "" {
		return explicitKey, "command-line flag", nil
	}

	store, err := NewStore()
	if err == nil {
		storedKey, err := store.Get(Provider)
		if err == nil && storedKey != "" {
			return storedKey, "stored key (" + store.Path() + ")", nil
		}
	}

	if envKey := os.Getenv(EnvVar); envKey != "" {
		return envKey, fmt.Sprintf("environment variable (%s)", EnvVar), nil
	}

	return "", "", fmt.Errorf("API key required: run 'lumina keys set' or set %s", EnvVar)
}
