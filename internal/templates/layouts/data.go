// data.go provides typed context helpers for passing layout data from
// middleware to page templates. Only simple types are stored so the layouts
// package never imports plugin types.
//
// Data flow: Guard → Echo Context → LayoutInjector → Go Context → templ
package layouts

import "context"

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyIsAuthenticated ctxKey = "layout_is_authenticated"
	keyUserName        ctxKey = "layout_user_name"
	keyUserEmail       ctxKey = "layout_user_email"
	keyActivePath      ctxKey = "layout_active_path"
	keyReturnTo        ctxKey = "layout_return_to"
)

// SetViewer stores the signed-in user's display data.
func SetViewer(ctx context.Context, name, email string) context.Context {
	ctx = context.WithValue(ctx, keyIsAuthenticated, true)
	ctx = context.WithValue(ctx, keyUserName, name)
	return context.WithValue(ctx, keyUserEmail, email)
}

// IsAuthenticated reports whether a viewer was stored.
func IsAuthenticated(ctx context.Context) bool {
	v, _ := ctx.Value(keyIsAuthenticated).(bool)
	return v
}

// GetUserName returns the viewer's display name.
func GetUserName(ctx context.Context) string {
	v, _ := ctx.Value(keyUserName).(string)
	return v
}

// GetUserEmail returns the viewer's email.
func GetUserEmail(ctx context.Context) string {
	v, _ := ctx.Value(keyUserEmail).(string)
	return v
}

// SetActivePath stores the request path for nav highlighting.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// GetActivePath returns the request path.
func GetActivePath(ctx context.Context) string {
	v, _ := ctx.Value(keyActivePath).(string)
	return v
}

// SetReturnTo stores where the login form should send the user afterwards.
func SetReturnTo(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyReturnTo, path)
}

// GetReturnTo returns the post-login destination, if any.
func GetReturnTo(ctx context.Context) string {
	v, _ := ctx.Value(keyReturnTo).(string)
	return v
}
