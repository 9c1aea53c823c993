package web

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/JonMunkholm/orcaflow/internal/core"
	"github.com/JonMunkholm/orcaflow/internal/logging"
)

// sessionIDKey is the cookie value holding the browser session id.
const sessionIDKey = "sid"

var errSessionNotFound = errors.New("session not found")

// newSessionStore returns a signed cookie store. Only the session id lives in
// the cookie; the page state stays in memory.
func newSessionStore(secret []byte, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// sessionMiddleware resolves the browser session to its controller, issuing
// a new session id when the cookie is missing or cannot be decoded.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		sess, err := s.sessions.Get(r, s.cookieName)
		if err != nil {
			// A tampered or stale cookie still yields a fresh session.
			log.Debug("session cookie rejected", "error", err)
		}

		sid, _ := sess.Values[sessionIDKey].(string)
		if _, perr := uuid.Parse(sid); perr != nil {
			sid = uuid.New().String()
			sess.Values[sessionIDKey] = sid
			if err := sess.Save(r, w); err != nil {
				respondError(w, r, err, http.StatusInternalServerError)
				return
			}
			log.Debug("session issued", "session_id", sid)
		}

		ctrl := s.service.Session(sid)
		ctx := logging.ContextWithSession(r.Context(), sid)
		ctx = withController(ctx, ctrl)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// controller returns the request's controller or writes a REQ001 error.
func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*core.Controller, bool) {
	c, ok := controllerFrom(r)
	if !ok {
		respondError(w, r, errSessionNotFound, http.StatusUnauthorized)
		return nil, false
	}
	return c, true
}
