// Package cookies turns browser-exported cookie JSON into the serialized
// cookie-attribute strings the relay forwards to the scraper.
package cookies

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "tweetrelay/pkg/errors"
)

const (
	// ErrInvalidJSON is reported when the input is not JSON at all
	ErrInvalidJSON = "Invalid JSON format. Please check your cookies.json"
	// ErrNotArray is reported when the top-level JSON value is not an array
	ErrNotArray = "Invalid format: Expected an array of cookies"
)

// Cookie is one entry of a browser cookie export. Extensions write either
// name or key for the identifier.
type Cookie struct {
	Name     string `json:"name,omitempty"`
	Key      string `json:"key,omitempty"`
	Value    string `json:"value"`
	Domain   string `json:"domain,omitempty"`
	Path     string `json:"path,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
}

// Identifier returns key when present, otherwise name
func (c Cookie) Identifier() string {
	if c.Key != "" {
		return c.Key
	}
	return c.Name
}

// Options controls serialization
type Options struct {
	RewriteDomain bool
}

// DefaultOptions rewrites x.com domains to twitter.com
var DefaultOptions = Options{RewriteDomain: true}

// RewriteDomain maps the current platform domain to the legacy one the
// scraper's cookie jar is keyed on.
func RewriteDomain(domain string) string {
	domain = strings.Replace(domain, ".x.com", ".twitter.com", 1)
	return strings.Replace(domain, "x.com", "twitter.com", 1)
}

// Serialize renders c as `name=value; Domain=d; Path=p; Secure; HttpOnly`,
// leaving out attributes that are not set.
func Serialize(c Cookie, opts Options) string {
	parts := []string{c.Identifier() + "=" + c.Value}

	if c.Domain != "" {
		domain := c.Domain
		if opts.RewriteDomain {
			domain = RewriteDomain(domain)
		}
		parts = append(parts, "Domain="+domain)
	}
	if c.Path != "" {
		parts = append(parts, "Path="+c.Path)
	}
	if c.Secure {
		parts = append(parts, "Secure")
	}
	if c.HTTPOnly {
		parts = append(parts, "HttpOnly")
	}

	return strings.Join(parts, "; ")
}

// Parse validates a cookie export and serializes every entry
func Parse(data []byte, opts Options) ([]string, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeValidation, err, ErrInvalidJSON)
	}
	if _, ok := raw.([]interface{}); !ok {
		return nil, apperrors.Validation(ErrNotArray)
	}

	var entries []Cookie
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeValidation, err, ErrInvalidJSON)
	}

	out := make([]string, 0, len(entries))
	for _, c := range entries {
		out = append(out, Serialize(c, opts))
	}
	return out, nil
}

// Normalize accepts the elements of a request's cookies array, each either an
// already serialized string or a cookie object, and returns serialized strings.
func Normalize(elements []json.RawMessage, opts Options) ([]string, error) {
	out := make([]string, 0, len(elements))
	for i, el := range elements {
		var s string
		if err := json.Unmarshal(el, &s); err == nil {
			if strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("cookie %d is empty", i)
			}
			out = append(out, s)
			continue
		}

		var c Cookie
		if err := json.Unmarshal(el, &c); err != nil {
			return nil, fmt.Errorf("cookie %d: %w", i, err)
		}
		if c.Identifier() == "" {
			return nil, fmt.Errorf("cookie %d has no name", i)
		}
		out = append(out, Serialize(c, opts))
	}
	return out, nil
}

// ToHTTP parses serialized cookie strings into http.Cookie values
func ToHTTP(serialized []string) ([]*http.Cookie, error) {
	out := make([]*http.Cookie, 0, len(serialized))
	for _, s := range serialized {
		c, err := http.ParseSetCookie(s)
		if err != nil {
			return nil, fmt.Errorf("invalid cookie %q: %w", redact(s), err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Names lists cookie names without their values, for logging
func Names(serialized []string) []string {
	names := make([]string, 0, len(serialized))
	for _, s := range serialized {
		name, _, _ := strings.Cut(s, "=")
		names = append(names, strings.TrimSpace(name))
	}
	return names
}

func redact(s string) string {
	name, _, found := strings.Cut(s, "=")
	if !found {
		return "<malformed>"
	}
	return strings.TrimSpace(name) + "=..."
}
