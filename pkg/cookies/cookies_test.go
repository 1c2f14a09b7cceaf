package cookies

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "tweetrelay/pkg/errors"
)

func TestParseRewritesDomain(t *testing.T) {
	out, err := Parse([]byte(`[{"name":"a","value":"b","domain":".x.com","secure":true}]`), DefaultOptions)

	require.NoError(t, err)
	assert.Equal(t, []string{"a=b; Domain=.twitter.com; Secure"}, out)
}

func TestParseAllAttributes(t *testing.T) {
	input := `[
		{"name":"auth_token","value":"tok","domain":".x.com","path":"/","secure":true,"httpOnly":true},
		{"key":"ct0","value":"csrf","domain":"x.com","path":"/"}
	]`

	out, err := Parse([]byte(input), DefaultOptions)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"auth_token=tok; Domain=.twitter.com; Path=/; Secure; HttpOnly",
		"ct0=csrf; Domain=twitter.com; Path=/",
	}, out)
}

func TestParseWithoutRewrite(t *testing.T) {
	out, err := Parse([]byte(`[{"name":"a","value":"b","domain":".x.com"}]`), Options{})

	require.NoError(t, err)
	assert.Equal(t, []string{"a=b; Domain=.x.com"}, out)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"bare object", `{"name":"a","value":"b"}`, ErrNotArray},
		{"string", `"a=b"`, ErrNotArray},
		{"not json", `name=a; value=b`, ErrInvalidJSON},
		{"truncated", `[{"name":"a"`, ErrInvalidJSON},
		{"wrong element type", `[1, 2]`, ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Parse([]byte(tt.input), DefaultOptions)

			require.Error(t, err)
			assert.Nil(t, out)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestParseEmptyArray(t *testing.T) {
	out, err := Parse([]byte(`[]`), DefaultOptions)

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRewriteDomain(t *testing.T) {
	assert.Equal(t, ".twitter.com", RewriteDomain(".x.com"))
	assert.Equal(t, "twitter.com", RewriteDomain("x.com"))
	assert.Equal(t, ".twitter.com", RewriteDomain(".twitter.com"))
	assert.Equal(t, "api.twitter.com", RewriteDomain("api.x.com"))
}

func TestNormalize(t *testing.T) {
	elements := []json.RawMessage{
		json.RawMessage(`"auth_token=tok; Domain=.twitter.com"`),
		json.RawMessage(`{"name":"ct0","value":"csrf","domain":".x.com"}`),
	}

	out, err := Normalize(elements, DefaultOptions)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"auth_token=tok; Domain=.twitter.com",
		"ct0=csrf; Domain=.twitter.com",
	}, out)
}

func TestNormalizeRejectsBadElements(t *testing.T) {
	for _, raw := range []string{`""`, `42`, `{"value":"orphan"}`} {
		_, err := Normalize([]json.RawMessage{json.RawMessage(raw)}, DefaultOptions)
		assert.Error(t, err, raw)
	}
}

func TestToHTTP(t *testing.T) {
	out, err := ToHTTP([]string{"auth_token=tok; Domain=.twitter.com; Path=/; Secure; HttpOnly"})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "auth_token", out[0].Name)
	assert.Equal(t, "tok", out[0].Value)
	assert.Equal(t, ".twitter.com", out[0].Domain)
	assert.Equal(t, "/", out[0].Path)
	assert.True(t, out[0].Secure)
	assert.True(t, out[0].HttpOnly)
}

func TestToHTTPRedactsValues(t *testing.T) {
	_, err := ToHTTP([]string{"secret-value-without-name"})

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-value")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"auth_token", "ct0"}, Names([]string{"auth_token=x; Secure", "ct0=y"}))
}
