// Package validate provides input validation for the gitbean CLI.
// The repository client itself forwards everything unchecked.
package validate

import (
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jayteealao/gitbean/internal/errors"
)

// mbeanPropertyRegex matches one key=value property of a JMX object name.
var mbeanPropertyRegex = regexp.MustCompile(`^[^=,:*?"]+=[^=,*?]+$`)

// Branch validates a branch name.
func Branch(name string) error {
	if name == "" {
		return fmt.Errorf("%w: cannot be empty", errors.ErrInvalidBranch)
	}

	invalid := []string{" ", "\t", "\n", "\r", "^", "~", ":", "?", "*", "[", "\\"}
	for _, char := range invalid {
		if strings.Contains(name, char) {
			return fmt.Errorf("%w: contains invalid character %q", errors.ErrInvalidBranch, char)
		}
	}

	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: cannot contain '..'", errors.ErrInvalidBranch)
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || strings.Contains(name, "//") {
		return fmt.Errorf("%w: misplaced '/'", errors.ErrInvalidBranch)
	}
	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: cannot start with '-'", errors.ErrInvalidBranch)
	}
	if strings.HasSuffix(name, ".lock") || strings.HasSuffix(name, ".") {
		return fmt.Errorf("%w: invalid suffix", errors.ErrInvalidBranch)
	}

	return nil
}

// MBean validates a JMX object name such as "io.fabric8:type=GitFacade".
// Wildcard patterns are rejected since operations need a single bean.
func MBean(name string) error {
	domain, props, ok := strings.Cut(name, ":")
	if !ok || strings.TrimSpace(domain) == "" || props == "" {
		return errors.ErrInvalidMBean
	}
	if strings.ContainsAny(domain, "*?") {
		return fmt.Errorf("%w: patterns not allowed", errors.ErrInvalidMBean)
	}

	for _, prop := range strings.Split(props, ",") {
		if !mbeanPropertyRegex.MatchString(prop) {
			return fmt.Errorf("%w: bad property %q", errors.ErrInvalidMBean, prop)
		}
	}

	return nil
}

// AgentURL validates a Jolokia agent URL.
func AgentURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("agent URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (use http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL missing host")
	}

	return nil
}

// Email validates an author email address.
func Email(addr string) error {
	if addr == "" {
		return fmt.Errorf("email cannot be empty")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}
	if parsed.Address != addr {
		return fmt.Errorf("invalid email address: %s", addr)
	}
	return nil
}

// RepoPath validates a local git repository path and returns it expanded.
func RepoPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("repository path cannot be empty")
	}

	expandedPath, err := expandPath(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	info, err := os.Stat(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", path)
		}
		return "", fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", path)
	}

	if _, err := os.Stat(filepath.Join(expandedPath, ".git")); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", errors.ErrNotGitRepo, path)
	}

	return expandedPath, nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
