// Package session carries the authenticated request context. Handlers and
// the workflow engine receive it explicitly instead of reading ambient
// per-request globals.
package session

// Context identifies the caller of a single request.
type Context struct {
	UserID        uint
	Email         string
	CSRFValidated bool
}

// Authenticated reports whether the session belongs to a signed-in user.
func (c Context) Authenticated() bool { return c.UserID != 0 }
