package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jayteealao/gitbean/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Valid names
		{"master", "master", false},
		{"nested", "feature/login", false},
		{"with dots", "release-1.2", false},
		{"with numbers", "v2", false},

		// Invalid names
		{"empty", "", true},
		{"space", "my branch", true},
		{"double dot", "a..b", true},
		{"colon", "a:b", true},
		{"tilde", "a~1", true},
		{"caret", "a^", true},
		{"glob", "feat*", true},
		{"leading slash", "/main", true},
		{"trailing slash", "main/", true},
		{"double slash", "a//b", true},
		{"leading dash", "-main", true},
		{"lock suffix", "main.lock", true},
		{"dot suffix", "main.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Branch(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidBranch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMBean(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"fabric git facade", "io.fabric8:type=GitFacade", false},
		{"hawtio git facade", "hawtio:type=GitFacade", false},
		{"several properties", "com.example:type=Git,name=main", false},

		{"empty", "", true},
		{"no colon", "git", true},
		{"no domain", ":type=Git", true},
		{"no properties", "io.fabric8:", true},
		{"property without value", "io.fabric8:type", true},
		{"property without key", "io.fabric8:=Git", true},
		{"pattern domain", "io.*:type=Git", true},
		{"pattern value", "io.fabric8:type=*", true},
		{"empty property", "io.fabric8:type=Git,", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MBean(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidMBean)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAgentURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"http", "http://localhost:8181/jolokia", false},
		{"https", "https://fabric.example.com/hawtio/jolokia", false},

		{"empty", "", true},
		{"no scheme", "localhost:8181/jolokia", true},
		{"ftp", "ftp://example.com/jolokia", true},
		{"no host", "http:///jolokia", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AgentURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	assert.NoError(t, Email("alice@example.com"))
	assert.NoError(t, Email("anonymous@gmail.com"))

	assert.Error(t, Email(""))
	assert.Error(t, Email("alice"))
	assert.Error(t, Email("Alice <alice@example.com>"))
}

func TestRepoPath(t *testing.T) {
	t.Run("valid git repo", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))

		got, err := RepoPath(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("not a git repo", func(t *testing.T) {
		_, err := RepoPath(t.TempDir())
		assert.ErrorIs(t, err, errors.ErrNotGitRepo)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := RepoPath(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("file instead of dir", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(f, []byte("x"), 0644))
		_, err := RepoPath(f)
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := RepoPath("")
		assert.Error(t, err)
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/repo")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "repo"), got)

	got, err = expandPath("~")
	require.NoError(t, err)
	assert.Equal(t, home, got)

	got, err = expandPath("/srv/repo")
	require.NoError(t, err)
	assert.Equal(t, "/srv/repo", got)
}
