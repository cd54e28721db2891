package httpapi

import (
	"net/http"

	"github.com/google/uuid"
)

// SessionCookie identifies a browser session; each session may run one job
// at a time.
const SessionCookie = "transcriber_session"

// session returns the caller's session id, issuing a new cookie when the
// request carries none or an invalid one.
func session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
