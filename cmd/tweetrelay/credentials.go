package main

import (
	"errors"
	"fmt"
	"os"

	"tweetrelay/pkg/auth"
	"tweetrelay/pkg/config"
	"tweetrelay/pkg/cookies"
)

// setLoader returns a stored cookie set; name "" means the default set
type setLoader func(name string) (*auth.CookieSet, error)

// managerLoader reads cookie sets from the system keychain, the encrypted
// file or TWEETRELAY_COOKIES
func managerLoader(name string) (*auth.CookieSet, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return manager.RetrieveDefault()
	}
	return manager.Retrieve(name)
}

// resolveCookies picks the serialized cookies for a request. A named set
// wins, then the cookie file from flags or config, then the default set.
func resolveCookies(c *config.Config, setName string, load setLoader) ([]string, error) {
	if setName == "" && c.Cookies.File != "" {
		return readCookieFile(c.Cookies.File, c.Cookies.RewriteDomain)
	}

	set, err := load(setName)
	if err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			return nil, fmt.Errorf("no cookies available: pass --cookies or run 'tweetrelay auth import': %w", err)
		}
		return nil, err
	}
	return set.Cookies, nil
}

func readCookieFile(path string, rewrite bool) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}
	serialized, err := cookies.Parse(data, cookies.Options{RewriteDomain: rewrite})
	if err != nil {
		return nil, fmt.Errorf("invalid cookie file %s: %w", path, err)
	}
	return serialized, nil
}
