package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/pathfinders/app"
	"github.com/mbolis/pathfinders/httpx"
	"github.com/mbolis/pathfinders/log"
)

type loginRequest struct {
	Password string `json:"password"`
}

// Login trades the admin password for a token. The password is read
// from a JSON body or, failing that, from basic auth.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeOptional(r, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if req.Password == "" {
			if _, pass, ok := r.BasicAuth(); ok {
				req.Password = pass
			}
		}

		token, err := app.Auth.Login(req.Password)
		if err != nil {
			httpx.LogStatusJSON(w, r, http.StatusUnauthorized, log.InfoLevel, "login.password", map[string]string{"error": "invalid"})
			return
		}

		http.SetCookie(w, &http.Cookie{
			Path:     "/",
			Name:     httpx.AuthCookie,
			Value:    token,
			MaxAge:   int(app.Auth.TTL().Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
		render.JSON(w, r, map[string]string{"token": token})
	}
}

func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Path:     "/",
			Name:     httpx.AuthCookie,
			Value:    "",
			MaxAge:   -1,
			SameSite: http.SameSiteStrictMode,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}
