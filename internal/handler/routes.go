package handler

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/msomdec/accountd/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, accounts *service.AccountService, db Pinger, logger *zap.Logger) {
	h := NewAccountHandler(accounts, logger)

	mux.HandleFunc("GET /healthz", HandleHealthz(db, logger))

	mux.HandleFunc("POST /api/user/register", h.HandleRegister)
	mux.HandleFunc("POST /api/user/login", h.HandleLogin)
	mux.HandleFunc("POST /api/user/verify", h.HandleVerify)
	mux.HandleFunc("POST /api/user/forgot-password", h.HandleForgotPassword)
	mux.HandleFunc("POST /api/user/reset-password", h.HandleResetPassword)
}

// Wrap applies the middleware chain shared by every route. RequestID runs
// first so AccessLog can see the ID.
func Wrap(h http.Handler, node *snowflake.Node, logger *zap.Logger) http.Handler {
	return SecurityHeaders(RequestID(node, AccessLog(logger, h)))
}
