// Package repository provides a client for a versioned file store exposed as
// a remote management bean. Reads, writes and removals are forwarded to the
// bean on a fixed branch; mutating calls carry the author identity found in
// local preferences.
//
// Every operation is asynchronous. It returns immediately and invokes its
// Completion exactly once, from another goroutine, with the bean's payload or
// the transport's error. Nothing is retried, queued or cancelled: independent
// calls may complete in any order, and a context passed in is forwarded to the
// transport untouched.
package repository

import (
	"context"
	"encoding/json"

	"github.com/jayteealao/gitbean/internal/jolokia"
	"github.com/jayteealao/gitbean/internal/prefs"
)

// Defaults applied when no preference or option overrides them.
const (
	DefaultBranch    = "master"
	DefaultUserName  = "anonymous"
	DefaultUserEmail = "anonymous@gmail.com"
)

// Bean operation names.
const (
	OpRead   = "read"
	OpWrite  = "write"
	OpRemove = "remove"
)

// Result is the outcome of one operation: the bean's payload, or an error.
type Result struct {
	Value json.RawMessage
	Err   error
}

// Decode unmarshals the payload into v. It returns Err if the operation failed.
func (r Result) Decode(v any) error {
	if r.Err != nil {
		return r.Err
	}
	return json.Unmarshal(r.Value, v)
}

// Completion receives the Result of an operation.
type Completion func(Result)

// Repository is the file-store contract offered to applications.
type Repository interface {
	Read(ctx context.Context, path string, done Completion)
	Write(ctx context.Context, path, commitMessage, contents string, done Completion)
	Remove(ctx context.Context, path, commitMessage string, done Completion)
	UserName() string
	UserEmail() string
}

// Client forwards repository operations to a bean through a Transport.
type Client struct {
	mbean     string
	transport jolokia.Transport
	prefs     prefs.Getter
	branch    string
}

// Ensure Client implements Repository
var _ Repository = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBranch targets branch instead of DefaultBranch.
func WithBranch(branch string) Option {
	return func(c *Client) {
		c.branch = branch
	}
}

// New creates a client for mbean. Arguments are stored as given.
func New(mbean string, transport jolokia.Transport, p prefs.Getter, opts ...Option) *Client {
	c := &Client{
		mbean:     mbean,
		transport: transport,
		prefs:     p,
		branch:    DefaultBranch,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MBean returns the bean this client invokes.
func (c *Client) MBean() string {
	return c.mbean
}

// Branch returns the branch every operation targets.
func (c *Client) Branch() string {
	return c.branch
}

// Read fetches the file or directory at path.
func (c *Client) Read(ctx context.Context, path string, done Completion) {
	c.execute(ctx, OpRead, done, c.branch, path)
}

// Write replaces the contents of the file at path and commits it as the
// current user.
func (c *Client) Write(ctx context.Context, path, commitMessage, contents string, done Completion) {
	name, email := c.Identity()
	c.execute(ctx, OpWrite, done, c.branch, path, commitMessage, name, email, contents)
}

// Remove deletes path and commits the removal as the current user.
func (c *Client) Remove(ctx context.Context, path, commitMessage string, done Completion) {
	name, email := c.Identity()
	c.execute(ctx, OpRemove, done, c.branch, path, commitMessage, name, email)
}

// UserName returns the stored author name, or DefaultUserName when unset or empty.
func (c *Client) UserName() string {
	return c.preference(prefs.KeyUserName, DefaultUserName)
}

// UserEmail returns the stored author email, or DefaultUserEmail when unset or empty.
func (c *Client) UserEmail() string {
	return c.preference(prefs.KeyUserEmail, DefaultUserEmail)
}

// Identity returns the author name and email used for commits.
func (c *Client) Identity() (name, email string) {
	return c.UserName(), c.UserEmail()
}

func (c *Client) preference(key, fallback string) string {
	if c.prefs == nil {
		return fallback
	}
	if v, ok := c.prefs.Get(key); ok && v != "" {
		return v
	}
	return fallback
}

// execute issues one invocation and adapts its outcome onto done.
func (c *Client) execute(ctx context.Context, operation string, done Completion, args ...any) {
	go func() {
		value, err := c.transport.Execute(ctx, c.mbean, operation, args...)
		if err != nil {
			value = nil
		}
		if done != nil {
			done(Result{Value: value, Err: err})
		}
	}()
}

// Await starts an operation and blocks until its completion fires.
//
//	res := repository.Await(func(done repository.Completion) {
//		client.Read(ctx, "/README.md", done)
//	})
func Await(start func(Completion)) Result {
	ch := make(chan Result, 1)
	start(func(r Result) {
		ch <- r
	})
	return <-ch
}
