// Package gitfacade serves the git facade bean operations (read, write,
// remove) against a local repository, so a repository client can run without
// a remote agent.
package gitfacade

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/jayteealao/gitbean/internal/errors"
	"github.com/jayteealao/gitbean/internal/jolokia"
	"github.com/sirupsen/logrus"
)

// Facade executes bean operations on a git working tree.
// Operations are serialised because they share the worktree.
type Facade struct {
	mu   sync.Mutex
	repo *git.Repository
	root string
	log  logrus.FieldLogger
}

// Ensure Facade implements jolokia.Transport
var _ jolokia.Transport = (*Facade)(nil)

// Open opens the repository at root.
func Open(root string, log logrus.FieldLogger) (*Facade, error) {
	r, err := git.PlainOpen(root)
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", errors.ErrNotGitRepo, root)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return New(r, root, log), nil
}

// New wraps an already opened repository.
func New(r *git.Repository, root string, log logrus.FieldLogger) *Facade {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Facade{repo: r, root: root, log: log}
}

// Root returns the repository path.
func (f *Facade) Root() string {
	return f.root
}

// Execute dispatches operation with its positional arguments. The bean name is
// only used for logging.
func (f *Facade) Execute(ctx context.Context, mbean, operation string, args ...any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	strs, err := stringArgs(operation, args)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	log := f.log.WithFields(logrus.Fields{"mbean": mbean, "operation": operation})
	log.Debug("executing facade operation")

	var value any
	switch operation {
	case "read":
		value, err = f.read(strs[0], strs[1])
	case "write":
		value, err = f.write(strs[0], strs[1], strs[2], strs[3], strs[4], strs[5])
	case "remove":
		value, err = f.remove(strs[0], strs[1], strs[2], strs[3], strs[4])
	}
	if err != nil {
		log.WithError(err).Debug("facade operation failed")
		return nil, err
	}

	return json.Marshal(value)
}

// arity is the number of arguments each operation takes.
var arity = map[string]int{
	"read":   2, // branch, path
	"write":  6, // branch, path, message, author name, author email, contents
	"remove": 5, // branch, path, message, author name, author email
}

func stringArgs(operation string, args []any) ([]string, error) {
	n, ok := arity[operation]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownOperation, operation)
	}
	if len(args) != n {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", errors.ErrInvalidArguments, operation, n, len(args))
	}
	strs := make([]string, n)
	for i, a := range args {
		s, ok := a.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s argument %d is %T, not string", errors.ErrInvalidArguments, operation, i, a)
		}
		strs[i] = s
	}
	return strs, nil
}

// relPath turns a bean path ("/docs/a.md", "docs/a.md") into a tree path.
// The root is "".
func relPath(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func (f *Facade) read(branch, p string) (*FileContents, error) {
	ref, err := f.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, fmt.Errorf("%w: branch %s has no commits", errors.ErrPathNotFound, branch)
		}
		return nil, fmt.Errorf("failed to resolve branch %s: %w", branch, err)
	}

	commit, err := f.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}

	rel := relPath(p)
	if rel == "" {
		return f.listing(tree, rel)
	}

	entry, err := tree.FindEntry(rel)
	if err != nil {
		if stderrors.Is(err, object.ErrEntryNotFound) || stderrors.Is(err, object.ErrDirectoryNotFound) {
			return nil, fmt.Errorf("%w: %s", errors.ErrPathNotFound, p)
		}
		return nil, fmt.Errorf("failed to find %s: %w", p, err)
	}

	if entry.Mode == filemode.Dir {
		sub, err := tree.Tree(rel)
		if err != nil {
			return nil, fmt.Errorf("failed to load directory %s: %w", p, err)
		}
		return f.listing(sub, rel)
	}

	file, err := tree.File(rel)
	if err != nil {
		return nil, fmt.Errorf("failed to load file %s: %w", p, err)
	}
	text, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", p, err)
	}
	return &FileContents{Text: text}, nil
}

func (f *Facade) listing(tree *object.Tree, dir string) (*FileContents, error) {
	children := make([]FileInfo, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		info := FileInfo{
			Name:      e.Name,
			Path:      "/" + path.Join(dir, e.Name),
			Directory: e.Mode == filemode.Dir,
		}
		if !info.Directory {
			if size, err := tree.Size(path.Join(dir, e.Name)); err == nil {
				info.Size = size
			}
		}
		children = append(children, info)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })

	return &FileContents{Directory: true, Children: children}, nil
}

func (f *Facade) write(branch, p, message, name, email, contents string) (*CommitInfo, error) {
	rel := relPath(p)
	if rel == "" {
		return nil, fmt.Errorf("%w: cannot write to the repository root", errors.ErrInvalidArguments)
	}

	if err := f.ensureNothingStaged(rel); err != nil {
		return nil, err
	}
	wt, err := f.checkout(branch)
	if err != nil {
		return nil, err
	}

	if dir := path.Dir(rel); dir != "." {
		if err := wt.Filesystem.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}
	if err := util.WriteFile(wt.Filesystem, rel, []byte(contents), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", p, err)
	}
	if _, err := wt.Add(rel); err != nil {
		return nil, fmt.Errorf("error adding %s to git: %w", p, err)
	}

	return f.commit(wt, branch, p, message, name, email, []string{rel})
}

func (f *Facade) remove(branch, p, message, name, email string) (*CommitInfo, error) {
	rel := relPath(p)
	if rel == "" {
		return nil, fmt.Errorf("%w: cannot remove the repository root", errors.ErrInvalidArguments)
	}

	if err := f.ensureNothingStaged(rel); err != nil {
		return nil, err
	}
	wt, err := f.checkout(branch)
	if err != nil {
		return nil, err
	}

	tracked, err := f.trackedPaths(rel)
	if err != nil {
		return nil, err
	}
	if len(tracked) == 0 {
		return nil, fmt.Errorf("%w: %s", errors.ErrPathNotFound, p)
	}

	// Only tracked files are removed; untracked files under rel stay.
	for _, file := range tracked {
		if _, err := wt.Remove(file); err != nil {
			return nil, fmt.Errorf("error removing %s from git: %w", file, err)
		}
		pruneEmptyDirs(wt, path.Dir(file))
	}

	return f.commit(wt, branch, p, message, name, email, tracked)
}

// ensureNothingStaged fails when the index holds staged changes outside rel.
func (f *Facade) ensureNothingStaged(rel string) error {
	wt, err := f.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	for file, st := range status {
		if st.Staging == git.Unmodified || st.Staging == git.Untracked {
			continue
		}
		if underPath(file, rel) {
			continue
		}
		return fmt.Errorf("%w: %s", errors.ErrStagedChanges, file)
	}
	return nil
}

// trackedPaths returns the index entries at or below rel.
func (f *Facade) trackedPaths(rel string) ([]string, error) {
	idx, err := f.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	var paths []string
	for _, e := range idx.Entries {
		if underPath(e.Name, rel) {
			paths = append(paths, e.Name)
		}
	}
	return paths, nil
}

// underPath reports whether file is rel or lies inside it.
func underPath(file, rel string) bool {
	return file == rel || strings.HasPrefix(file, rel+"/")
}

// pruneEmptyDirs removes rel and its parents while they are empty
// directories.
func pruneEmptyDirs(wt *git.Worktree, rel string) {
	for dir := rel; dir != "." && dir != ""; dir = path.Dir(dir) {
		entries, err := wt.Filesystem.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return
		}
		if len(entries) != 0 {
			return
		}
		if err := wt.Filesystem.Remove(dir); err != nil {
			return
		}
	}
}

// commit records the staged change to paths. On failure only those index
// entries are reset to HEAD.
func (f *Facade) commit(wt *git.Worktree, branch, p, message, name, email string, paths []string) (*CommitInfo, error) {
	sig := &object.Signature{Name: name, Email: email, When: time.Now()}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		if head, herr := f.repo.Head(); herr == nil {
			reset := &git.ResetOptions{Commit: head.Hash(), Mode: git.MixedReset, Files: paths}
			if rerr := wt.Reset(reset); rerr != nil {
				return nil, fmt.Errorf("error unstaging changes while recovering from commit error: %v:\n\t%v", err, rerr)
			}
		}
		return nil, fmt.Errorf("failed to commit %s: %w", p, err)
	}

	return &CommitInfo{Commit: hash.String(), Branch: branch, Path: p}, nil
}

// checkout switches the worktree to branch, creating it from HEAD when it
// does not exist yet. On an unborn HEAD the branch is created by the next
// commit.
func (f *Facade) checkout(branch string) (*git.Worktree, error) {
	wt, err := f.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	ref := plumbing.NewBranchReferenceName(branch)
	head, err := f.repo.Head()
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		if err := f.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, ref)); err != nil {
			return nil, fmt.Errorf("failed to point HEAD at %s: %w", branch, err)
		}
		return wt, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if head.Name() == ref {
		return wt, nil
	}

	_, err = f.repo.Reference(ref, true)
	create := stderrors.Is(err, plumbing.ErrReferenceNotFound)
	if err != nil && !create {
		return nil, fmt.Errorf("failed to resolve branch %s: %w", branch, err)
	}

	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref, Create: create}); err != nil {
		return nil, fmt.Errorf("failed to checkout %s: %w", branch, err)
	}
	return wt, nil
}
