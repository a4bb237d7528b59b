package handler

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/msomdec/accountd/internal/domain"
	"github.com/msomdec/accountd/internal/service"
)

const (
	msgInvalidBody      = "Invalid request body."
	msgUnexpected       = "An unexpected error occurred."
	msgUserExists       = "User already exists."
	msgUserNotFound     = "User not found."
	msgUserNotVerified  = "User not verified."
	msgPasswordMismatch = "Password is incorrect."
	msgInvalidToken     = "Invalid token."
	msgConfirmMismatch  = "Passwords do not match."
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AccountHandler exposes AccountService over JSON.
type AccountHandler struct {
	accounts *service.AccountService
	logger   *zap.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// HandleRegister processes POST /api/user/register.
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		writeError(w, http.StatusBadRequest, msgConfirmMismatch)
		return
	}

	if _, err := h.accounts.Register(r.Context(), req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateAccount):
			writeError(w, http.StatusBadRequest, msgUserExists)
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, validationMessage(err))
		default:
			h.internalError(w, r, "register", err)
		}
		return
	}

	writeMessage(w, "User added!")
}

// HandleLogin processes POST /api/user/login.
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			writeError(w, http.StatusBadRequest, msgUserNotFound)
		case errors.Is(err, domain.ErrAccountUnverified):
			writeError(w, http.StatusBadRequest, msgUserNotVerified)
		case errors.Is(err, domain.ErrCredentialMismatch):
			writeError(w, http.StatusBadRequest, msgPasswordMismatch)
		default:
			h.internalError(w, r, "login", err)
		}
		return
	}

	writeMessage(w, "Welcome back, "+user.Email+".")
}

// HandleVerify processes POST /api/user/verify?token=.
func (h *AccountHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	if _, err := h.accounts.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			writeError(w, http.StatusBadRequest, msgInvalidToken)
			return
		}
		h.internalError(w, r, "verify", err)
		return
	}

	writeMessage(w, "User verified.")
}

// HandleForgotPassword processes POST /api/user/forgot-password?email=.
// The reset token is delivered through the notifier, never in the response.
func (h *AccountHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	if _, err := h.accounts.RequestPasswordReset(r.Context(), email); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			writeError(w, http.StatusBadRequest, msgUserNotFound)
			return
		}
		h.internalError(w, r, "forgot password", err)
		return
	}

	writeMessage(w, "You may now reset your password.")
}

// HandleResetPassword processes POST /api/user/reset-password.
func (h *AccountHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		writeError(w, http.StatusBadRequest, msgConfirmMismatch)
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrExpiredToken):
			writeError(w, http.StatusBadRequest, msgInvalidToken)
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, validationMessage(err))
		default:
			h.internalError(w, r, "reset password", err)
		}
		return
	}

	writeMessage(w, "Password successfully reset.")
}

func (h *AccountHandler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error(op+" failed",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, msgUnexpected)
}

// validationMessage turns "invalid input: email and password are required"
// into "Email and password are required."
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error())
	msg = strings.TrimSpace(strings.TrimPrefix(msg, ":"))
	if msg == "" {
		return "Invalid input."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
