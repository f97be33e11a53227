package httpserver

import "net/http"

// Routes groups handlers. Middleware wraps authenticated endpoints.
type Routes struct {
	Signup         http.HandlerFunc
	Login          http.HandlerFunc
	Scan           http.HandlerFunc
	ManualExit     http.HandlerFunc
	SessionsMe     http.HandlerFunc
	ActiveSessions http.HandlerFunc
	Rates          http.HandlerFunc
	Feed           http.HandlerFunc
	Health         http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes, auth func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	if routes.Signup != nil {
		mux.Handle("/auth/signup", method(http.MethodPost, routes.Signup))
	}
	if routes.Login != nil {
		mux.Handle("/auth/login", method(http.MethodPost, routes.Login))
	}
	if routes.Scan != nil {
		mux.Handle("/scan", protect(auth, method(http.MethodPost, routes.Scan)))
	}
	if routes.ManualExit != nil {
		mux.Handle("/sessions/manual-exit", protect(auth, method(http.MethodPost, routes.ManualExit)))
	}
	if routes.SessionsMe != nil {
		mux.Handle("/sessions/me", protect(auth, method(http.MethodGet, routes.SessionsMe)))
	}
	if routes.ActiveSessions != nil {
		mux.Handle("/sessions/active", protect(auth, method(http.MethodGet, routes.ActiveSessions)))
	}
	if routes.Rates != nil {
		mux.Handle("/rates", method(http.MethodGet, routes.Rates))
	}
	if routes.Feed != nil {
		mux.Handle("/ws/feed", method(http.MethodGet, routes.Feed))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

func protect(auth func(http.Handler) http.Handler, handler http.Handler) http.Handler {
	if auth == nil {
		return handler
	}
	return auth(handler)
}
