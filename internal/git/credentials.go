package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// remoteURLParts splits an http(s) URL into protocol, host and path.
var remoteURLParts = regexp.MustCompile(`^(https?)://([^/]+)(/.*)?$`)

// StoreCredentials saves a repository token into a persistent Git
// credential store so the worker can pull without the token ever
// appearing in the remote URL or the on-disk configuration.
func StoreCredentials(ctx context.Context, credFile, repoURL, token string) error {
	if err := os.MkdirAll(filepath.Dir(credFile), 0o755); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	if token == "" {
		return nil
	}

	input, ok := credentialInput(repoURL, token)
	if !ok {
		return nil
	}

	cmd := exec.CommandContext(ctx, "git",
		"-c", fmt.Sprintf("credential.helper=store --file=%s", credFile),
		"credential", "approve")
	cmd.Stdin = strings.NewReader(input)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("store credentials: %w\n%s", err, string(out))
	}
	return nil
}

// LookupToken retrieves a stored token for the repository, or "" when
// none is known.
func LookupToken(ctx context.Context, credFile, repoURL string) string {
	if _, err := os.Stat(credFile); err != nil {
		return ""
	}

	request, ok := credentialRequest(repoURL)
	if !ok {
		return ""
	}

	cmd := exec.CommandContext(ctx, "git",
		"-c", fmt.Sprintf("credential.helper=store --file=%s", credFile),
		"credential", "fill")
	cmd.Stdin = strings.NewReader(request)

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}

	for _, line := range strings.Split(out.String(), "\n") {
		if after, found := strings.CutPrefix(line, "username="); found {
			return after
		}
	}
	return ""
}

// credentialInput builds the "git credential approve" payload. The
// token travels as the username, matching the store format GitHub and
// GitLab expect for token auth.
func credentialInput(repoURL, token string) (string, bool) {
	protocol, host, path, ok := splitRemoteURL(repoURL)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("protocol=%s\nhost=%s\npath=%s\nusername=%s\npassword=\n\n",
		protocol, host, path, token), true
}

// credentialRequest builds the "git credential fill" payload.
func credentialRequest(repoURL string) (string, bool) {
	protocol, host, path, ok := splitRemoteURL(repoURL)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("protocol=%s\nhost=%s\npath=%s\n", protocol, host, path), true
}

func splitRemoteURL(repoURL string) (protocol, host, path string, ok bool) {
	m := remoteURLParts.FindStringSubmatch(repoURL)
	if m == nil {
		return "", "", "", false
	}
	protocol = m[1]
	// Strip any user@ prefix left in the host part.
	hostPart := m[2]
	if i := strings.LastIndexByte(hostPart, '@'); i >= 0 {
		hostPart = hostPart[i+1:]
	}
	path = m[3]
	if path == "" {
		path = "/"
	}
	return protocol, hostPart, path, true
}
