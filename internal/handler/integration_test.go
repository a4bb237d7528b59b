package handler_test

import (
	"net/http"
	"net/url"
	"testing"
)

func TestIntegration_RegisterVerifyLogin(t *testing.T) {
	srv, notifier := newTestServer(t)

	// 1. Register.
	expect(t, "register",
		postJSON(t, srv, "/api/user/register", map[string]string{"email": "a@x.com", "password": "p1", "confirmPassword": "p1"}),
		http.StatusOK, "User added!")

	// 2. Login before verification is refused.
	expect(t, "login unverified",
		postJSON(t, srv, "/api/user/login", map[string]string{"email": "a@x.com", "password": "p1"}),
		http.StatusBadRequest, "User not verified.")

	// 3. Verify with the token delivered to the notifier.
	expect(t, "verify",
		postQuery(t, srv, "/api/user/verify?token="+url.QueryEscape(notifier.verificationToken("a@x.com"))),
		http.StatusOK, "User verified.")

	// 4. Login succeeds.
	expect(t, "login",
		postJSON(t, srv, "/api/user/login", map[string]string{"email": "a@x.com", "password": "p1"}),
		http.StatusOK, "Welcome back, a@x.com.")

	// 5. Wrong password.
	expect(t, "login wrong password",
		postJSON(t, srv, "/api/user/login", map[string]string{"email": "a@x.com", "password": "wrong"}),
		http.StatusBadRequest, "Password is incorrect.")
}

func TestIntegration_ForgotAndResetPassword(t *testing.T) {
	srv, notifier := newTestServer(t)

	expect(t, "register",
		postJSON(t, srv, "/api/user/register", map[string]string{"email": "a@x.com", "password": "p1"}),
		http.StatusOK, "User added!")
	expect(t, "verify",
		postQuery(t, srv, "/api/user/verify?token="+url.QueryEscape(notifier.verificationToken("a@x.com"))),
		http.StatusOK, "User verified.")

	// 1. Request a reset.
	expect(t, "forgot",
		postQuery(t, srv, "/api/user/forgot-password?email="+url.QueryEscape("a@x.com")),
		http.StatusOK, "You may now reset your password.")
	token := notifier.resetToken("a@x.com")

	// 2. Reset the password.
	expect(t, "reset",
		postJSON(t, srv, "/api/user/reset-password", map[string]string{"token": token, "password": "p2", "confirmPassword": "p2"}),
		http.StatusOK, "Password successfully reset.")

	// 3. The token is single use.
	expect(t, "reset reuse",
		postJSON(t, srv, "/api/user/reset-password", map[string]string{"token": token, "password": "p3"}),
		http.StatusBadRequest, "Invalid token.")

	// 4. Only the new password works.
	expect(t, "login new",
		postJSON(t, srv, "/api/user/login", map[string]string{"email": "a@x.com", "password": "p2"}),
		http.StatusOK, "Welcome back, a@x.com.")
	expect(t, "login old",
		postJSON(t, srv, "/api/user/login", map[string]string{"email": "a@x.com", "password": "p1"}),
		http.StatusBadRequest, "Password is incorrect.")
}
