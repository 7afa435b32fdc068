package gitfacade

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/jayteealao/gitbean/internal/errors"
	"github.com/jayteealao/gitbean/internal/prefs"
	"github.com/jayteealao/gitbean/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mbean = "io.fabric8:type=GitFacade"

func setupTestFacade(t *testing.T) (*Facade, string) {
	t.Helper()

	root := t.TempDir()
	_, err := git.PlainInit(root, false)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)

	f, err := Open(root, log)
	require.NoError(t, err)
	return f, root
}

func execute(t *testing.T, f *Facade, op string, args ...any) (json.RawMessage, error) {
	t.Helper()
	return f.Execute(context.Background(), mbean, op, args...)
}

func readContents(t *testing.T, f *Facade, branch, p string) *FileContents {
	t.Helper()
	raw, err := execute(t, f, "read", branch, p)
	require.NoError(t, err)
	var fc FileContents
	require.NoError(t, json.Unmarshal(raw, &fc))
	return &fc
}

func TestOpen(t *testing.T) {
	t.Run("not a repository", func(t *testing.T) {
		_, err := Open(t.TempDir(), nil)
		assert.ErrorIs(t, err, errors.ErrNotGitRepo)
	})

	t.Run("existing repository", func(t *testing.T) {
		f, root := setupTestFacade(t)
		assert.Equal(t, root, f.Root())
	})
}

func TestFacade_WriteAndRead(t *testing.T) {
	f, root := setupTestFacade(t)

	t.Run("write into an empty repository", func(t *testing.T) {
		raw, err := execute(t, f, "write", "master", "/foo.txt", "init", "alice", "alice@example.com", "hello")
		require.NoError(t, err)

		var info CommitInfo
		require.NoError(t, json.Unmarshal(raw, &info))
		assert.Len(t, info.Commit, 40)
		assert.Equal(t, "master", info.Branch)
		assert.Equal(t, "/foo.txt", info.Path)

		data, err := os.ReadFile(filepath.Join(root, "foo.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("commit carries the author", func(t *testing.T) {
		head, err := f.repo.Head()
		require.NoError(t, err)
		commit, err := f.repo.CommitObject(head.Hash())
		require.NoError(t, err)

		assert.Equal(t, "init", commit.Message)
		assert.Equal(t, "alice", commit.Author.Name)
		assert.Equal(t, "alice@example.com", commit.Author.Email)
	})

	t.Run("read a file", func(t *testing.T) {
		fc := readContents(t, f, "master", "/foo.txt")
		assert.False(t, fc.Directory)
		assert.Equal(t, "hello", fc.Text)
	})

	t.Run("paths with and without leading slash are equivalent", func(t *testing.T) {
		fc := readContents(t, f, "master", "foo.txt")
		assert.Equal(t, "hello", fc.Text)
	})

	t.Run("nested write creates directories", func(t *testing.T) {
		_, err := execute(t, f, "write", "master", "/docs/guide/intro.md", "add docs", "alice", "alice@example.com", "# Intro")
		require.NoError(t, err)

		fc := readContents(t, f, "master", "/docs/guide/intro.md")
		assert.Equal(t, "# Intro", fc.Text)
	})

	t.Run("read a directory", func(t *testing.T) {
		fc := readContents(t, f, "master", "/")
		assert.True(t, fc.Directory)
		require.Len(t, fc.Children, 2)

		assert.Equal(t, FileInfo{Name: "docs", Path: "/docs", Directory: true}, fc.Children[0])
		assert.Equal(t, FileInfo{Name: "foo.txt", Path: "/foo.txt", Size: 5}, fc.Children[1])

		sub := readContents(t, f, "master", "/docs/guide")
		require.Len(t, sub.Children, 1)
		assert.Equal(t, "/docs/guide/intro.md", sub.Children[0].Path)
	})

	t.Run("overwrite with identical contents still commits", func(t *testing.T) {
		before, err := f.repo.Head()
		require.NoError(t, err)

		_, err = execute(t, f, "write", "master", "/foo.txt", "again", "bob", "bob@example.com", "hello")
		require.NoError(t, err)

		after, err := f.repo.Head()
		require.NoError(t, err)
		assert.NotEqual(t, before.Hash(), after.Hash())
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := execute(t, f, "read", "master", "/missing.txt")
		assert.ErrorIs(t, err, errors.ErrPathNotFound)
	})

	t.Run("missing branch", func(t *testing.T) {
		_, err := execute(t, f, "read", "nope", "/foo.txt")
		assert.ErrorIs(t, err, errors.ErrPathNotFound)
	})
}

func TestFacade_Branches(t *testing.T) {
	f, _ := setupTestFacade(t)

	_, err := execute(t, f, "write", "master", "/a.txt", "on master", "alice", "a@example.com", "master")
	require.NoError(t, err)

	_, err = execute(t, f, "write", "feature", "/a.txt", "on feature", "alice", "a@example.com", "feature")
	require.NoError(t, err)

	assert.Equal(t, "master", readContents(t, f, "master", "/a.txt").Text)
	assert.Equal(t, "feature", readContents(t, f, "feature", "/a.txt").Text)

	_, err = f.repo.Reference(plumbing.NewBranchReferenceName("feature"), true)
	assert.NoError(t, err)

	// Switching back keeps branches independent.
	_, err = execute(t, f, "write", "master", "/b.txt", "only master", "alice", "a@example.com", "b")
	require.NoError(t, err)

	_, err = execute(t, f, "read", "feature", "/b.txt")
	assert.ErrorIs(t, err, errors.ErrPathNotFound)
}

func TestFacade_Remove(t *testing.T) {
	f, root := setupTestFacade(t)

	_, err := execute(t, f, "write", "master", "/keep.txt", "add", "alice", "a@example.com", "keep")
	require.NoError(t, err)
	_, err = execute(t, f, "write", "master", "/gone.txt", "add", "alice", "a@example.com", "gone")
	require.NoError(t, err)
	_, err = execute(t, f, "write", "master", "/dir/x.txt", "add", "alice", "a@example.com", "x")
	require.NoError(t, err)

	t.Run("remove a file", func(t *testing.T) {
		_, err := execute(t, f, "remove", "master", "/gone.txt", "remove gone", "bob", "b@example.com")
		require.NoError(t, err)

		_, err = execute(t, f, "read", "master", "/gone.txt")
		assert.ErrorIs(t, err, errors.ErrPathNotFound)
		assert.NoFileExists(t, filepath.Join(root, "gone.txt"))

		head, err := f.repo.Head()
		require.NoError(t, err)
		commit, err := f.repo.CommitObject(head.Hash())
		require.NoError(t, err)
		assert.Equal(t, "remove gone", commit.Message)
		assert.Equal(t, "bob", commit.Author.Name)
	})

	t.Run("remove a directory", func(t *testing.T) {
		_, err := execute(t, f, "remove", "master", "/dir", "remove dir", "bob", "b@example.com")
		require.NoError(t, err)

		fc := readContents(t, f, "master", "/")
		require.Len(t, fc.Children, 1)
		assert.Equal(t, "keep.txt", fc.Children[0].Name)
		assert.NoDirExists(t, filepath.Join(root, "dir"))
	})

	t.Run("remove a missing path", func(t *testing.T) {
		_, err := execute(t, f, "remove", "master", "/nope.txt", "rm", "bob", "b@example.com")
		assert.ErrorIs(t, err, errors.ErrPathNotFound)
	})

	t.Run("remove the root is rejected", func(t *testing.T) {
		_, err := execute(t, f, "remove", "master", "/", "rm", "bob", "b@example.com")
		assert.ErrorIs(t, err, errors.ErrInvalidArguments)
	})
}

func TestFacade_InvalidCalls(t *testing.T) {
	f, _ := setupTestFacade(t)

	tests := []struct {
		name    string
		op      string
		args    []any
		wantErr error
	}{
		{"unknown operation", "history", []any{"master"}, errors.ErrUnknownOperation},
		{"too few arguments", "read", []any{"master"}, errors.ErrInvalidArguments},
		{"too many arguments", "remove", []any{"master", "/a", "m", "n", "e", "x"}, errors.ErrInvalidArguments},
		{"non-string argument", "read", []any{"master", 42}, errors.ErrInvalidArguments},
		{"write to root", "write", []any{"master", "/", "m", "n", "e", "x"}, errors.ErrInvalidArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, f, tt.op, tt.args...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.Execute(ctx, mbean, "read", "master", "/")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFacade_WithRepositoryClient(t *testing.T) {
	f, _ := setupTestFacade(t)
	ctx := context.Background()

	client := repository.New(mbean, f, prefs.Map{})

	res := repository.Await(func(done repository.Completion) {
		client.Write(ctx, "/foo.txt", "init", "hello", done)
	})
	require.NoError(t, res.Err)

	head, err := f.repo.Head()
	require.NoError(t, err)
	commit, err := f.repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "anonymous", commit.Author.Name)
	assert.Equal(t, "anonymous@gmail.com", commit.Author.Email)

	res = repository.Await(func(done repository.Completion) {
		client.Read(ctx, "/foo.txt", done)
	})
	var fc FileContents
	require.NoError(t, res.Decode(&fc))
	assert.Equal(t, "hello", fc.Text)

	res = repository.Await(func(done repository.Completion) {
		client.Read(ctx, "/missing.txt", done)
	})
	assert.ErrorIs(t, res.Err, errors.ErrPathNotFound)
	assert.Nil(t, res.Value)
}

func headHasFile(t *testing.T, f *Facade, name string) bool {
	t.Helper()
	head, err := f.repo.Head()
	require.NoError(t, err)
	commit, err := f.repo.CommitObject(head.Hash())
	require.NoError(t, err)
	tree, err := commit.Tree()
	require.NoError(t, err)
	_, err = tree.File(name)
	return err == nil
}

func TestFacade_OtherWorkInRepository(t *testing.T) {
	f, root := setupTestFacade(t)

	_, err := execute(t, f, "write", "master", "/a.txt", "add a", "alice", "a@example.com", "a")
	require.NoError(t, err)

	t.Run("untracked files are not committed", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("mine"), 0644))

		_, err := execute(t, f, "write", "master", "/b.txt", "add b", "alice", "a@example.com", "b")
		require.NoError(t, err)

		assert.True(t, headHasFile(t, f, "b.txt"))
		assert.False(t, headHasFile(t, f, "notes.txt"))
		assert.FileExists(t, filepath.Join(root, "notes.txt"))
	})

	t.Run("staged changes to other paths are refused", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("s"), 0644))
		wt, err := f.repo.Worktree()
		require.NoError(t, err)
		_, err = wt.Add("secret.txt")
		require.NoError(t, err)

		head, err := f.repo.Head()
		require.NoError(t, err)

		_, err = execute(t, f, "write", "master", "/c.txt", "add c", "alice", "a@example.com", "c")
		assert.ErrorIs(t, err, errors.ErrStagedChanges)

		_, err = execute(t, f, "remove", "master", "/a.txt", "rm a", "alice", "a@example.com")
		assert.ErrorIs(t, err, errors.ErrStagedChanges)

		after, err := f.repo.Head()
		require.NoError(t, err)
		assert.Equal(t, head.Hash(), after.Hash())
		assert.False(t, headHasFile(t, f, "secret.txt"))

		status, err := wt.Status()
		require.NoError(t, err)
		assert.Equal(t, git.Added, status.File("secret.txt").Staging)
		assert.NoFileExists(t, filepath.Join(root, "c.txt"))
	})

	t.Run("a staged change to the written path is allowed", func(t *testing.T) {
		wt, err := f.repo.Worktree()
		require.NoError(t, err)
		_, err = wt.Remove("secret.txt")
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("draft"), 0644))
		_, err = wt.Add("a.txt")
		require.NoError(t, err)

		_, err = execute(t, f, "write", "master", "/a.txt", "update a", "alice", "a@example.com", "final")
		require.NoError(t, err)
		assert.Equal(t, "final", readContents(t, f, "master", "/a.txt").Text)
	})
}

func TestFacade_RemoveKeepsUntrackedFiles(t *testing.T) {
	f, root := setupTestFacade(t)

	_, err := execute(t, f, "write", "master", "/dir/a.txt", "add", "alice", "a@example.com", "a")
	require.NoError(t, err)
	_, err = execute(t, f, "write", "master", "/dir/sub/b.txt", "add", "alice", "a@example.com", "b")
	require.NoError(t, err)

	notes := filepath.Join(root, "dir", "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("untracked"), 0644))

	_, err = execute(t, f, "remove", "master", "/dir", "remove dir", "bob", "b@example.com")
	require.NoError(t, err)

	assert.FileExists(t, notes)
	assert.NoFileExists(t, filepath.Join(root, "dir", "a.txt"))
	assert.NoDirExists(t, filepath.Join(root, "dir", "sub"))

	_, err = execute(t, f, "read", "master", "/dir")
	assert.ErrorIs(t, err, errors.ErrPathNotFound)

	t.Run("a directory holding only untracked files is not found", func(t *testing.T) {
		_, err := execute(t, f, "remove", "master", "/dir", "remove again", "bob", "b@example.com")
		assert.ErrorIs(t, err, errors.ErrPathNotFound)
		assert.FileExists(t, notes)
	})
}
