// Package auth stores named cookie sets so the CLI does not need to re-read a
// browser export on every run.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"tweetrelay/pkg/cookies"
)

// DefaultSetName is used when a cookie set is imported without a name
const DefaultSetName = "default"

// CookieSet is a named list of serialized cookie strings
type CookieSet struct {
	Name         string    `json:"name"`
	Cookies      []string  `json:"cookies"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving cookie sets
type CredentialStore interface {
	// Store saves a cookie set under its name
	Store(set *CookieSet) error

	// Retrieve gets the cookie set with the given name
	Retrieve(name string) (*CookieSet, error)

	// List returns all stored cookie sets
	List() ([]*CookieSet, error)

	// Delete removes the cookie set with the given name
	Delete(name string) error

	// Exists checks if a cookie set is stored under name
	Exists(name string) bool
}

// Manager handles cookie set storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a manager backed by the system keychain when it is
// available, an encrypted file, and the environment.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "cookies.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over the given stores, tried in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves a cookie set using the first store that accepts it
func (m *Manager) Store(set *CookieSet) error {
	if set == nil || strings.TrimSpace(set.Name) == "" {
		return errors.New("cookie set name is required")
	}
	if len(set.Cookies) == 0 {
		return errors.New("cookie set is empty")
	}
	if _, err := cookies.ToHTTP(set.Cookies); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	set.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(set)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store cookie set: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets a cookie set from the first store that has it
func (m *Manager) Retrieve(name string) (*CookieSet, error) {
	for _, store := range m.stores {
		if set, err := store.Retrieve(name); err == nil && set != nil {
			return set, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// RetrieveDefault returns the set named default, the environment set, or the
// most recently modified stored set, in that order.
func (m *Manager) RetrieveDefault() (*CookieSet, error) {
	if set, err := m.Retrieve(DefaultSetName); err == nil {
		return set, nil
	}

	sets, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, ErrCredentialsNotFound
	}

	latest := sets[0]
	for _, s := range sets[1:] {
		if s.LastModified.After(latest.LastModified) {
			latest = s
		}
	}
	return latest, nil
}

// List returns the stored cookie sets from all stores sorted by name. When a
// name appears in more than one store the newest copy wins.
func (m *Manager) List() ([]*CookieSet, error) {
	byName := make(map[string]*CookieSet)

	for _, store := range m.stores {
		sets, err := store.List()
		if err != nil {
			continue
		}
		for _, set := range sets {
			if existing, ok := byName[set.Name]; !ok || set.LastModified.After(existing.LastModified) {
				byName[set.Name] = set
			}
		}
	}

	result := make([]*CookieSet, 0, len(byName))
	for _, set := range byName {
		result = append(result, set)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// Delete removes a cookie set from every store that holds it
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		err := store.Delete(name)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete cookie set: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
	}
	return nil
}

// ConfigDir returns the per-user configuration directory, creating it if needed
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "tweetrelay")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "tweetrelay")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "tweetrelay")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "tweetrelay")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Redact returns the cookie strings of set with every value masked
func Redact(set *CookieSet) []string {
	if set == nil {
		return nil
	}
	out := make([]string, 0, len(set.Cookies))
	for _, c := range set.Cookies {
		name, rest, _ := strings.Cut(c, "=")
		value, attrs, hasAttrs := strings.Cut(rest, ";")
		masked := strings.TrimSpace(name) + "=" + maskString(value)
		if hasAttrs {
			masked += ";" + attrs
		}
		out = append(out, masked)
	}
	return out
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("cookie set not found")
	ErrInvalidCredentials  = errors.New("invalid cookie set")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
