package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/workhive/authcore"
	"github.com/workhive/authcore/middleware"
)

// Handler serves the /auth HTTP surface for one Engine.
type Handler struct {
	engine *authcore.Engine
}

// New returns a Handler bound to engine.
func New(engine *authcore.Engine) *Handler {
	return &Handler{engine: engine}
}

// Mount registers every auth route on mux. Routes that require an
// authenticated caller are wrapped in the bearer-token guard.
func (h *Handler) Mount(mux *http.ServeMux) {
	guard := middleware.Guard(h.engine)

	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("POST /auth/verify-otp", h.verifyOTP)
	mux.HandleFunc("POST /auth/resend-otp", h.resendOTP)
	mux.HandleFunc("POST /auth/login", h.login)
	mux.HandleFunc("POST /auth/refresh", h.refresh)
	mux.Handle("POST /auth/logout", guard(http.HandlerFunc(h.logout)))
	mux.Handle("POST /auth/change-password/send-otp", guard(http.HandlerFunc(h.sendPasswordChangeOTP)))
	mux.Handle("PUT /auth/change-password", guard(http.HandlerFunc(h.changePassword)))
	mux.Handle("PUT /auth/first-login/change-password", guard(http.HandlerFunc(h.firstLoginChange)))
	mux.HandleFunc("POST /auth/forgot-password", h.forgotPassword)
	mux.HandleFunc("PUT /auth/reset-password/{resettoken}", h.resetPassword)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.engine.Register(r.Context(), authcore.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"email":                result.Email,
		"requiresVerification": result.RequiresVerification,
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.engine.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setRefreshCookie(w, result.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.AccessToken,
		"user":  result.User,
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *Handler) resendOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.engine.ResendOTP(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "verification code sent"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setRefreshCookie(w, result.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":        result.AccessToken,
		"user":         result.User,
		"isFirstLogin": result.FirstLogin,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	token := h.refreshTokenFrom(r)
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, "refresh token required")
		return
	}

	result, err := h.engine.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.AccessToken,
		"user":  result.User,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.engine.RevokeSession(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

type sendChangeOTPRequest struct {
	CurrentPassword string `json:"currentPassword"`
}

func (h *Handler) sendPasswordChangeOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req sendChangeOTPRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.engine.SendPasswordChangeOTP(r.Context(), userID, req.CurrentPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "verification code sent"})
}

type changePasswordRequest struct {
	NewPassword string `json:"newPassword"`
	OTP         string `json:"otp"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.engine.ChangePassword(r.Context(), userID, req.NewPassword, req.OTP); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "password changed"})
}

type firstLoginChangeRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *Handler) firstLoginChange(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req firstLoginChangeRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.engine.FirstLoginChangePassword(r.Context(), userID, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}

	err := h.engine.ForgotPassword(r.Context(), req.Email, requestBaseURL(r))
	if err != nil {
		if errors.Is(err, authcore.ErrMailSend) {
			// Forwarded deliberately so operators see why the reset
			// email did not go out.
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "reset email sent"})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.engine.ResetPassword(r.Context(), r.PathValue("resettoken"), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setRefreshCookie(w, result.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.AccessToken,
		"user":  result.User,
	})
}

func (h *Handler) refreshTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(h.engine.CookieSettings().Name); err == nil && c.Value != "" {
		return c.Value
	}
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
