package auth

import (
	"os"
	"time"

	"tweetrelay/pkg/cookies"
)

// CookiesEnv holds a browser cookie export as JSON
const CookiesEnv = "TWEETRELAY_COOKIES"

// EnvironmentSetName is the name reported for the environment cookie set
const EnvironmentSetName = "env"

// EnvironmentStore is a read-only CredentialStore over TWEETRELAY_COOKIES
type EnvironmentStore struct {
	opts cookies.Options
}

// NewEnvironmentStore creates a new environment-based store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{opts: cookies.DefaultOptions}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(*CookieSet) error {
	return ErrStoreUnavailable
}

// Retrieve parses the environment export. It answers only to the names env
// and the empty string.
func (e *EnvironmentStore) Retrieve(name string) (*CookieSet, error) {
	if name != "" && name != EnvironmentSetName {
		return nil, ErrCredentialsNotFound
	}
	raw := os.Getenv(CookiesEnv)
	if raw == "" {
		return nil, ErrCredentialsNotFound
	}

	serialized, err := cookies.Parse([]byte(raw), e.opts)
	if err != nil || len(serialized) == 0 {
		return nil, ErrInvalidCredentials
	}

	return &CookieSet{Name: EnvironmentSetName, Cookies: serialized, LastModified: time.Now()}, nil
}

// List returns the environment set when one is configured
func (e *EnvironmentStore) List() ([]*CookieSet, error) {
	set, err := e.Retrieve(EnvironmentSetName)
	if err != nil {
		return []*CookieSet{}, nil
	}
	return []*CookieSet{set}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

// Exists reports whether TWEETRELAY_COOKIES is set
func (e *EnvironmentStore) Exists(name string) bool {
	return (name == "" || name == EnvironmentSetName) && os.Getenv(CookiesEnv) != ""
}
