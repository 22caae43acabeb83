package auth

import (
	"context"
	"time"
)

// Context caches "who is the current user" for the lifetime of a process
// run. Validation happens once, in Validate; a token is valid iff the
// directory has a session for it, the session has not expired, and the
// referenced user still exists. Anything else, including transport
// failures, degrades to unauthenticated.
type Context struct {
	dir   *Directory
	creds Credentials

	user          *User
	authenticated bool
}

func NewContext(dir *Directory, creds Credentials) *Context {
	return &Context{dir: dir, creds: creds}
}

// Validate performs the validation round-trip and caches the outcome. The
// returned error is informational; callers must treat any error as
// unauthenticated, never as fatal.
func (c *Context) Validate(ctx context.Context) error {
	c.user = nil
	c.authenticated = false

	if c.creds.Token == "" {
		return nil
	}

	session, err := c.dir.LookupSessionByToken(ctx, c.creds.Token)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	if session.ExpiresAt != nil && session.ExpiresAt.Before(time.Now()) {
		return nil
	}

	user, err := c.dir.LookupUserByID(ctx, string(session.UserID))
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	c.user = user
	c.authenticated = true
	return nil
}

func (c *Context) IsAuthenticated() bool {
	return c.authenticated
}

// CurrentUserID returns the validated user's id, or "" when
// unauthenticated.
func (c *Context) CurrentUserID() string {
	if c.user == nil {
		return ""
	}
	return string(c.user.ID)
}

func (c *Context) User() *User {
	return c.user
}
