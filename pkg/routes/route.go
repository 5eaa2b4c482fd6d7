package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
// Middleware applies to this route only, inside any group middleware.
type Route struct {
	Method     string
	Pattern    string
	Handler    http.HandlerFunc
	Middleware []func(http.Handler) http.Handler
}
