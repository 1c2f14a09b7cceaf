package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetrelay/pkg/auth"
	"tweetrelay/pkg/client"
	"tweetrelay/pkg/config"
	apperrors "tweetrelay/pkg/errors"
	"tweetrelay/pkg/export"
	"tweetrelay/pkg/relay"
	"tweetrelay/pkg/stream"
	"tweetrelay/pkg/ui"
)

const cookieExport = `[
	{"name":"auth_token","value":"0123456789abcdef","domain":".x.com","path":"/","secure":true,"httpOnly":true},
	{"name":"ct0","value":"csrf-token-value","domain":".x.com","path":"/"}
]`

// useConfig installs c as the loaded configuration and captures console output
func useConfig(t *testing.T, c *config.Config) *bytes.Buffer {
	t.Helper()
	prev := cfg
	cfg = c
	var buf bytes.Buffer
	ui.SetOutput(&buf)
	t.Cleanup(func() {
		cfg = prev
		ui.SetOutput(os.Stdout)
	})
	return &buf
}

func useManager(t *testing.T) *auth.MockStore {
	t.Helper()
	manager, store := auth.NewMockManager()
	prev := newCredentialManager
	newCredentialManager = func() (*auth.Manager, error) { return manager, nil }
	t.Cleanup(func() { newCredentialManager = prev })
	return store
}

func TestFlagOverrides(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("addr", "", "")
	cmd.Flags().Int("progress-interval", 0, "")
	cmd.Flags().Int("default-max", 0, "")
	cmd.Flags().Bool("verify-login", false, "")
	cmd.Flags().String("output", "", "")

	require.NoError(t, cmd.Flags().Parse([]string{"--addr", ":8080", "--progress-interval", "5", "--verify-login"}))

	flags := flagOverrides(cmd)
	assert.Equal(t, map[string]interface{}{
		"addr":              ":8080",
		"progress-interval": 5,
		"verify-login":      true,
	}, flags)

	c := config.DefaultConfig()
	c.MergeCommandLineFlags(flags)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 5, c.Relay.ProgressInterval)
	assert.True(t, c.Relay.VerifyLogin)
}

func TestResolveCookiesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(cookieExport), 0600))

	c := config.DefaultConfig()
	c.Cookies.File = path
	c.Cookies.RewriteDomain = true

	loader := func(string) (*auth.CookieSet, error) {
		t.Fatal("store should not be consulted when a file is configured")
		return nil, nil
	}

	out, err := resolveCookies(c, "", loader)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, strings.HasPrefix(out[0], "auth_token=0123456789abcdef; Domain=.twitter.com"))
}

func TestResolveCookiesNamedSetWins(t *testing.T) {
	c := config.DefaultConfig()
	c.Cookies.File = "/does/not/exist.json"

	var asked string
	out, err := resolveCookies(c, "work", func(name string) (*auth.CookieSet, error) {
		asked = name
		return &auth.CookieSet{Name: name, Cookies: []string{"auth_token=abc"}}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "work", asked)
	assert.Equal(t, []string{"auth_token=abc"}, out)
}

func TestResolveCookiesNotFound(t *testing.T) {
	_, err := resolveCookies(config.DefaultConfig(), "", func(string) (*auth.CookieSet, error) {
		return nil, auth.ErrCredentialsNotFound
	})

	assert.ErrorIs(t, err, auth.ErrCredentialsNotFound)
	assert.Contains(t, err.Error(), "auth import")
}

func TestResolveCookiesBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0600))

	c := config.DefaultConfig()
	c.Cookies.File = path
	_, err := resolveCookies(c, "", managerLoader)
	assert.ErrorContains(t, err, "invalid cookie file")
}

func TestStreamError(t *testing.T) {
	useConfig(t, config.DefaultConfig())

	t.Run("clean end", func(t *testing.T) {
		assert.NoError(t, streamError(export.NewAccumulator(), nil))
	})

	t.Run("error event already shown", func(t *testing.T) {
		acc := export.NewAccumulator()
		acc.Apply(stream.Error("rate limited"))
		assert.ErrorIs(t, streamError(acc, nil), errAlreadyReported)
	})

	t.Run("cancelled keeps partial results", func(t *testing.T) {
		acc := export.NewAccumulator()
		err := apperrors.Wrap(apperrors.ErrorTypeCancelled, errors.New("context canceled"), "request cancelled")
		assert.NoError(t, streamError(acc, err))
		assert.Empty(t, acc.Err())
	})

	t.Run("server error keeps its text", func(t *testing.T) {
		acc := export.NewAccumulator()
		err := streamError(acc, apperrors.FromStatusCode(400, "Invalid request parameters"))
		assert.EqualError(t, err, "Invalid request parameters")
		assert.Empty(t, acc.Err())
	})

	t.Run("transport failure uses generic message", func(t *testing.T) {
		acc := export.NewAccumulator()
		err := streamError(acc, errors.New("unexpected EOF"))
		assert.ErrorContains(t, err, export.GenericErrorMessage)
		assert.Equal(t, export.GenericErrorMessage, acc.Err())
	})
}

func TestExportTweetsWritesBothFiles(t *testing.T) {
	c := config.DefaultConfig()
	c.Export.Directory = t.TempDir()
	buf := useConfig(t, c)

	acc := export.NewAccumulator()
	acc.Apply(stream.TweetEvent([]byte(`{"id":"1","photos":[{"url":"https://pbs.twimg.com/media/a.jpg"}]}`)))

	require.NoError(t, exportTweets("jack", acc))
	assert.FileExists(t, filepath.Join(c.Export.Directory, "jack_tweets.json"))
	assert.FileExists(t, filepath.Join(c.Export.Directory, "jack_images.json"))
	assert.Contains(t, buf.String(), "jack_images.json")
}

func TestImportListRemove(t *testing.T) {
	buf := useConfig(t, config.DefaultConfig())
	store := useManager(t)

	require.NoError(t, runImport(strings.NewReader(cookieExport), &bytes.Buffer{}, "main"))
	assert.Equal(t, 1, store.Count())
	assert.Contains(t, buf.String(), `Stored 2 cookies as "main"`)
	assert.Contains(t, buf.String(), "auth_token, ct0")

	set, err := store.Get("main")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(set.Cookies[0], "auth_token=0123456789abcdef"))

	require.NoError(t, runAuthList())
	assert.Contains(t, buf.String(), "main: 2 cookies")

	require.NoError(t, removeCmd.RunE(removeCmd, []string{"main"}))
	assert.Equal(t, 0, store.Count())
}

func TestImportRejectsEmptyAndInvalid(t *testing.T) {
	useConfig(t, config.DefaultConfig())
	store := useManager(t)

	assert.ErrorContains(t, runImport(strings.NewReader("  "), &bytes.Buffer{}, "main"), "auth guide")
	assert.ErrorContains(t, runImport(strings.NewReader("not json"), &bytes.Buffer{}, "main"), "invalid cookie export")
	assert.Equal(t, 0, store.Count())
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	useConfig(t, config.DefaultConfig())
	path := filepath.Join(t.TempDir(), "tweetrelay", "config.yaml")

	require.NoError(t, runConfigInit(path))
	loaded, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Relay, loaded.Relay)

	assert.ErrorContains(t, runConfigInit(path), "already exists")
}

func TestConfigShowMasksDSN(t *testing.T) {
	c := config.DefaultConfig()
	c.Sentry.DSN = "https://key@sentry.example.com/1"

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, runConfigShow(cmd, c))
	assert.Contains(t, out.String(), "********")
	assert.NotContains(t, out.String(), "sentry.example.com")
	assert.Equal(t, "https://key@sentry.example.com/1", c.Sentry.DSN)
}

func TestServeHelpNamesRoutes(t *testing.T) {
	var named []string
	for _, word := range strings.Fields(serveCmd.Long) {
		if strings.HasPrefix(word, "/api/") {
			named = append(named, strings.TrimRight(word, ",."))
		}
	}

	var routes []string
	for _, source := range []relay.Source{relay.SourceTweets, relay.SourceLiked, relay.SourceSearch} {
		path, err := client.Endpoint(source)
		require.NoError(t, err)
		routes = append(routes, path)
	}
	assert.Equal(t, routes, named)
}
