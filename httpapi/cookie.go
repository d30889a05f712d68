package httpapi

import "net/http"

// setRefreshCookie stores the refresh token in the configured cookie.
// clearRefreshCookie must mirror every attribute except value and
// max-age; mismatched attributes make browsers keep the old cookie.
func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string) {
	cfg := h.engine.CookieSettings()
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     cfg.Path,
		MaxAge:   int(h.engine.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   cfg.Production,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	cfg := h.engine.CookieSettings()
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cfg.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Production,
		SameSite: http.SameSiteStrictMode,
	})
}
