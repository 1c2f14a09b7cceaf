package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "tweetrelay"
	keyringPrefix  = "cookies_"
	// keyringIndex holds the JSON list of stored set names
	keyringIndex = "index"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring store after checking the keychain answers
func NewKeyringStore() (*KeyringStore, error) {
	return newKeyringStore(keyringService)
}

func newKeyringStore(service string) (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(service, testKey, "test"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	_ = keyring.Delete(service, testKey)

	return &KeyringStore{service: service}, nil
}

// Store saves a cookie set to the system keychain
func (k *KeyringStore) Store(set *CookieSet) error {
	if set == nil || set.Name == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal cookie set: %w", err)
	}

	if err := keyring.Set(k.service, keyringPrefix+set.Name, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	names, err := k.names()
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == set.Name {
			return nil
		}
	}
	return k.saveNames(append(names, set.Name))
}

// Retrieve gets a cookie set from the system keychain
func (k *KeyringStore) Retrieve(name string) (*CookieSet, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(k.service, keyringPrefix+name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var set CookieSet
	if err := json.Unmarshal([]byte(data), &set); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cookie set: %w", err)
	}

	return &set, nil
}

// List returns every set recorded in the keychain index. go-keyring cannot
// enumerate entries, so the store keeps its own list of names.
func (k *KeyringStore) List() ([]*CookieSet, error) {
	names, err := k.names()
	if err != nil {
		return nil, err
	}

	sets := make([]*CookieSet, 0, len(names))
	for _, name := range names {
		set, err := k.Retrieve(name)
		if err != nil {
			continue
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// Delete removes a cookie set from the system keychain
func (k *KeyringStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}

	if err := keyring.Delete(k.service, keyringPrefix+name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	names, err := k.names()
	if err != nil {
		return err
	}
	kept := names[:0]
	for _, n := range names {
		if n != name {
			kept = append(kept, n)
		}
	}
	return k.saveNames(kept)
}

// Exists checks if a cookie set exists in the keychain
func (k *KeyringStore) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := keyring.Get(k.service, keyringPrefix+name)
	return err == nil
}

func (k *KeyringStore) names() ([]string, error) {
	data, err := keyring.Get(k.service, keyringIndex)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}

	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("failed to parse keyring index: %w", err)
	}
	return names, nil
}

func (k *KeyringStore) saveNames(names []string) error {
	if len(names) == 0 {
		err := keyring.Delete(k.service, keyringIndex)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to clear keyring index: %w", err)
		}
		return nil
	}

	sort.Strings(names)
	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	if err := keyring.Set(k.service, keyringIndex, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring index: %w", err)
	}
	return nil
}
