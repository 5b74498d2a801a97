// Package registry handles registry authentication state for push
// operations: reading the local Docker credential store and prompting for
// an interactive login when no session exists.
package registry

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	coreregistry "github.com/artfold/aistack/internal/core/registry"
	"github.com/artfold/aistack/internal/shell/docker"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrConfigUnreadable = errors.New("docker config unreadable")
	ErrNoCredentials    = errors.New("no registry credentials")
)

// dockerHubAuthKey is the key Docker Hub sessions are stored under in
// config.json.
const dockerHubAuthKey = "https://index.docker.io/v1/"

// =============================================================================
// Docker Config Parsing
// =============================================================================

// dockerConfig mirrors the fields of ~/.docker/config.json we care about.
type dockerConfig struct {
	Auths       map[string]dockerAuth `json:"auths"`
	CredsStore  string                `json:"credsStore"`
	CredHelpers map[string]string     `json:"credHelpers"`
}

type dockerAuth struct {
	Auth string `json:"auth"` // base64(user:pass); empty when a helper holds the secret
}

// DefaultConfigPath returns the Docker CLI config file location.
func DefaultConfigPath() string {
	if dir := os.Getenv("DOCKER_CONFIG"); dir != "" {
		return filepath.Join(dir, "config.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".docker", "config.json")
}

// Session describes an existing registry login found on disk, with the
// credentials inline.
type Session struct {
	Host     string
	Username string
	Password string
}

// LoadSession looks up an existing login for the registry host in the
// Docker config file. Returns ErrNoCredentials when no session exists or
// when the login is held by a credential helper, since the helper's secret
// cannot be read from config.json and an empty auth would be rejected by
// the registry.
func LoadSession(configPath, host string) (Session, error) {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	host = coreregistry.NormalizeHost(host)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, ErrNoCredentials
		}
		return Session{}, fmt.Errorf("%w: %v", ErrConfigUnreadable, err)
	}

	var cfg dockerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrConfigUnreadable, err)
	}

	for key, auth := range cfg.Auths {
		if !hostMatches(key, host) {
			continue
		}
		user, pass, ok := decodeAuth(auth.Auth)
		if !ok {
			// An auths entry without an inline auth blob means a
			// credential helper holds the secret.
			return Session{}, ErrNoCredentials
		}
		return Session{Host: host, Username: user, Password: pass}, nil
	}

	// A credHelpers entry is a login too, but its secret lives in the
	// helper binary, not in config.json.
	return Session{}, ErrNoCredentials
}

// hostMatches compares a config.json auth key against a normalized host.
func hostMatches(key, host string) bool {
	if host == coreregistry.DockerHubHost {
		return key == dockerHubAuthKey || coreregistry.NormalizeHost(key) == coreregistry.DockerHubHost
	}
	return coreregistry.NormalizeHost(key) == host
}

// decodeAuth unpacks the base64 user:pass blob from config.json.
func decodeAuth(encoded string) (user, pass string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", false
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// =============================================================================
// Interactive Login
// =============================================================================

// Prompter collects registry credentials from the terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer
}

// NewPrompter creates a prompter reading stdin and writing stdout.
func NewPrompter() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stdout}
}

// Credentials prompts for username and password. The username defaults to
// fallbackUser when the prompt is left blank. The AISTACK_REGISTRY_PASSWORD
// environment variable short-circuits the password prompt for
// non-interactive use.
func (p *Prompter) Credentials(host, fallbackUser string) (docker.Credentials, error) {
	reader := bufio.NewReader(p.In)

	prompt := fmt.Sprintf("Username (%s): ", fallbackUser)
	if fallbackUser == "" {
		prompt = "Username: "
	}
	fmt.Fprint(p.Out, prompt)

	userLine, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return docker.Credentials{}, fmt.Errorf("reading username: %w", err)
	}
	username := strings.TrimSpace(userLine)
	if username == "" {
		username = fallbackUser
	}
	if username == "" {
		return docker.Credentials{}, ErrNoCredentials
	}

	password := os.Getenv("AISTACK_REGISTRY_PASSWORD")
	if password == "" {
		fmt.Fprint(p.Out, "Password: ")
		passLine, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return docker.Credentials{}, fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimSpace(passLine)
	}
	if password == "" {
		return docker.Credentials{}, ErrNoCredentials
	}

	return docker.Credentials{
		Host:     coreregistry.NormalizeHost(host),
		Username: username,
		Password: password,
	}, nil
}
