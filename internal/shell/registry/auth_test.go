package registry

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func basicAuth(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}

func TestLoadSession_DockerHub(t *testing.T) {
	path := writeConfig(t, `{
		"auths": {
			"https://index.docker.io/v1/": {"auth": "`+basicAuth("acme", "s3cret")+`"}
		}
	}`)

	session, err := LoadSession(path, "docker.io")
	require.NoError(t, err)
	assert.Equal(t, "docker.io", session.Host)
	assert.Equal(t, "acme", session.Username)
	assert.Equal(t, "s3cret", session.Password)
}

func TestLoadSession_PrivateRegistry(t *testing.T) {
	path := writeConfig(t, `{
		"auths": {
			"registry.example.com": {"auth": "`+basicAuth("bot", "hunter2")+`"}
		}
	}`)

	session, err := LoadSession(path, "registry.example.com")
	require.NoError(t, err)
	assert.Equal(t, "bot", session.Username)
}

func TestLoadSession_NoEntry(t *testing.T) {
	path := writeConfig(t, `{"auths": {}}`)

	_, err := LoadSession(path, "docker.io")
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestLoadSession_MissingFile(t *testing.T) {
	_, err := LoadSession(filepath.Join(t.TempDir(), "nope", "config.json"), "docker.io")
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestLoadSession_MalformedFile(t *testing.T) {
	path := writeConfig(t, `{not json`)

	_, err := LoadSession(path, "docker.io")
	assert.ErrorIs(t, err, ErrConfigUnreadable)
}

func TestLoadSession_CredentialHelper(t *testing.T) {
	// Helper-held logins carry no readable secret; treating them as a
	// usable session would push with empty auth and get a 401.
	path := writeConfig(t, `{
		"credHelpers": {"registry.example.com": "osxkeychain"}
	}`)

	_, err := LoadSession(path, "registry.example.com")
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestLoadSession_HelperBackedAuthsEntry(t *testing.T) {
	// Docker Desktop writes an auths entry with an empty auth blob when
	// a credential store holds the login.
	path := writeConfig(t, `{
		"auths": {
			"https://index.docker.io/v1/": {}
		},
		"credsStore": "desktop"
	}`)

	_, err := LoadSession(path, "docker.io")
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestDecodeAuth(t *testing.T) {
	user, pass, ok := decodeAuth(basicAuth("acme", "pass:with:colons"))
	require.True(t, ok)
	assert.Equal(t, "acme", user)
	assert.Equal(t, "pass:with:colons", pass)
}

func TestDecodeAuth_Invalid(t *testing.T) {
	_, _, ok := decodeAuth("!!!not-base64!!!")
	assert.False(t, ok)

	_, _, ok = decodeAuth(base64.StdEncoding.EncodeToString([]byte("nocolon")))
	assert.False(t, ok)
}

// =============================================================================
// Prompter
// =============================================================================

func TestPrompter_Credentials(t *testing.T) {
	t.Setenv("AISTACK_REGISTRY_PASSWORD", "")

	var out strings.Builder
	p := &Prompter{
		In:  strings.NewReader("acme\ns3cret\n"),
		Out: &out,
	}

	creds, err := p.Credentials("docker.io", "")
	require.NoError(t, err)
	assert.Equal(t, "docker.io", creds.Host)
	assert.Equal(t, "acme", creds.Username)
	assert.Equal(t, "s3cret", creds.Password)
	assert.Contains(t, out.String(), "Username")
	assert.Contains(t, out.String(), "Password")
}

func TestPrompter_FallbackUsername(t *testing.T) {
	t.Setenv("AISTACK_REGISTRY_PASSWORD", "")

	var out strings.Builder
	p := &Prompter{
		In:  strings.NewReader("\ns3cret\n"),
		Out: &out,
	}

	creds, err := p.Credentials("docker.io", "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", creds.Username)
}

func TestPrompter_NoUsername(t *testing.T) {
	t.Setenv("AISTACK_REGISTRY_PASSWORD", "")

	p := &Prompter{
		In:  strings.NewReader("\n\n"),
		Out: &strings.Builder{},
	}

	_, err := p.Credentials("docker.io", "")
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestPrompter_PasswordFromEnv(t *testing.T) {
	t.Setenv("AISTACK_REGISTRY_PASSWORD", "from-env")

	var out strings.Builder
	p := &Prompter{
		In:  strings.NewReader("acme\n"),
		Out: &out,
	}

	creds, err := p.Credentials("docker.io", "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", creds.Password)
	assert.NotContains(t, out.String(), "Password")
}
