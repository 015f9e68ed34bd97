package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"authd/cmd/identity"
	"authd/cmd/internal/auth/autherr"
	"authd/cmd/internal/auth/session"
	"authd/cmd/security/password"
)

// Handler wires HTTP auth endpoints to the identity, session and verification services.
type Handler struct {
	log    *slog.Logger
	cfg    Config
	cookie CookieBinding

	users     UserStore
	sessions  Sessions
	verifier  Verifier
	passwords PasswordHasher
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, deps Deps, cfg Config) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	switch {
	case deps.Users == nil:
		return nil, errors.New("authapi: nil user store")
	case deps.Sessions == nil:
		return nil, errors.New("authapi: nil session service")
	case deps.Verifier == nil:
		return nil, errors.New("authapi: nil verifier")
	case deps.Passwords == nil:
		return nil, errors.New("authapi: nil password hasher")
	}

	cfg = cfg.withDefaults()
	return &Handler{
		log:       log,
		cfg:       cfg,
		cookie:    NewCookieBinding(cfg.Production()),
		users:     deps.Users,
		sessions:  deps.Sessions,
		verifier:  deps.Verifier,
		passwords: deps.Passwords,
	}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/signup", h.handleSignup)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/verify-email", h.handleVerifyEmail)
	mux.HandleFunc("/auth/verify-email/resend", h.handleResendVerification)
	mux.HandleFunc("/me", h.handleMe)
}

// ---- handlers ----

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if !identity.ValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid_email", "a valid email is required")
		return
	}
	if err := h.passwords.ValidateFor(req.Email, req.Password); err != nil {
		writePasswordPolicyError(w, err)
		return
	}

	hash, err := h.passwords.Hash(req.Password)
	if err != nil {
		h.log.Error("auth.signup.hash.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	ctx, cancel := h.storeCtx(r)
	defer cancel()

	user, err := h.users.CreateUser(ctx, identity.CreateUserInput{Email: req.Email, PasswordHash: hash})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			writeError(w, http.StatusConflict, "email_taken", "an account with this email already exists")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid signup request")
		default:
			h.writeStoreFault(w, "auth.signup.create_user.fail", err)
		}
		return
	}

	resp := signupResponse{User: toUserResponse(user)}
	if _, err := h.verifier.IssueAndSend(ctx, user); err != nil {
		if errors.Is(err, autherr.ErrMailDeliveryFailed) {
			h.log.Warn("auth.signup.verification_mail.fail", "user_id", user.ID, "err", err)
		} else {
			h.log.Error("auth.signup.verification_issue.fail", "user_id", user.ID, "err", err)
		}
	} else {
		resp.VerificationEmailSent = true
	}

	if h.cfg.RequireEmailVerified {
		writeJSON(w, http.StatusCreated, resp)
		return
	}

	issued, err := h.sessions.Issue(ctx, user.ID)
	if err != nil {
		h.writeStoreFault(w, "auth.signup.issue_session.fail", err)
		return
	}
	http.SetCookie(w, h.cookie.Bind(issued.Token, issued.Session.ExpiresAt))
	sr := toSessionResponse(issued.Session)
	resp.Session = &sr
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if identity.NormalizeEmail(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	ctx, cancel := h.storeCtx(r)
	defer cancel()

	userAuth, err := h.users.GetUserAuthByEmail(ctx, req.Email)
	if err != nil {
		if !identity.IsNotFound(err) && !identity.IsInvalidInput(err) {
			h.writeStoreFault(w, "auth.login.lookup.fail", err)
			return
		}
		// Same cost as a real verify so a miss is not observable by timing.
		h.passwords.VerifyDummy(req.Password)
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}

	if !h.passwords.Verify(userAuth.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}
	if h.cfg.RequireEmailVerified && !userAuth.User.EmailVerified {
		writeError(w, http.StatusForbidden, "email_not_verified", "email verification required")
		return
	}

	issued, err := h.sessions.Issue(ctx, userAuth.User.ID)
	if err != nil {
		h.writeStoreFault(w, "auth.login.issue_session.fail", err)
		return
	}

	http.SetCookie(w, h.cookie.Bind(issued.Token, issued.Session.ExpiresAt))
	writeJSON(w, http.StatusOK, loginResponse{
		User:    toUserResponse(userAuth.User),
		Session: toSessionResponse(issued.Session),
	})
}

// handleLogout always answers 204 and clears the cookie, even when the
// presented session is already gone.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if tok := h.cookie.TokenFrom(r); tok != "" {
		ctx, cancel := h.storeCtx(r)
		defer cancel()

		// Deleting by token skips validation, so a logout inside the renewal
		// window does not write a renewal first.
		if err := h.sessions.InvalidateToken(ctx, tok); err != nil {
			h.log.Error("auth.logout.invalidate.fail", "err", err)
		}
	}

	http.SetCookie(w, h.cookie.Unbind())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	v, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	if v.Renewed {
		http.SetCookie(w, h.cookie.Bind(h.cookie.TokenFrom(r), v.Session.ExpiresAt))
	}
	writeJSON(w, http.StatusOK, meResponse{
		User:    toUserResponse(v.Owner),
		Session: toSessionResponse(v.Session),
	})
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req verifyRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	ctx, cancel := h.storeCtx(r)
	defer cancel()

	user, err := h.verifier.Consume(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, autherr.ErrInvalidVerificationToken):
			writeError(w, http.StatusBadRequest, "invalid_verification_token", "verification token is invalid")
		case errors.Is(err, autherr.ErrExpiredVerificationToken):
			writeError(w, http.StatusGone, "expired_verification_token", "verification token has expired")
		default:
			h.writeStoreFault(w, "auth.verify_email.consume.fail", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{User: toUserResponse(user)})
}

// handleResendVerification answers 202 whether or not the account exists.
func (h *Handler) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req resendRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if identity.ValidEmail(req.Email) {
		ctx, cancel := h.storeCtx(r)
		defer cancel()
		h.resendVerification(ctx, req.Email)
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) resendVerification(ctx context.Context, email string) {
	ua, err := h.users.GetUserAuthByEmail(ctx, email)
	if err != nil {
		if !identity.IsNotFound(err) {
			h.log.Error("auth.verify_email.resend.lookup.fail", "err", err)
		}
		return
	}
	if ua.User.EmailVerified {
		return
	}
	if _, err := h.verifier.IssueAndSend(ctx, ua.User); err != nil {
		h.log.Error("auth.verify_email.resend.fail", "user_id", ua.User.ID, "err", err)
	}
}

// ---- helpers ----

// requireSession validates the session cookie. On failure it has already
// written the response.
func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (session.Validated, bool) {
	tok := h.cookie.TokenFrom(r)
	if tok == "" {
		writeError(w, http.StatusUnauthorized, "no_session", "authentication required")
		return session.Validated{}, false
	}

	ctx, cancel := h.storeCtx(r)
	defer cancel()

	v, err := h.sessions.Validate(ctx, tok)
	if err != nil {
		if autherr.IsNoSession(err) {
			http.SetCookie(w, h.cookie.Unbind())
			writeError(w, http.StatusUnauthorized, "no_session", "authentication required")
			return session.Validated{}, false
		}
		h.writeStoreFault(w, "auth.session.validate.fail", err)
		return session.Validated{}, false
	}
	return v, true
}

func (h *Handler) storeCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.cfg.StoreTimeout)
}

func (h *Handler) writeStoreFault(w http.ResponseWriter, event string, err error) {
	h.log.Error(event, "err", err)
	writeError(w, http.StatusServiceUnavailable, "store_unavailable", "please retry later")
}

func writePasswordPolicyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, password.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, "password_too_short", "password is too short")
	case errors.Is(err, password.ErrPasswordTooLong):
		writeError(w, http.StatusBadRequest, "password_too_long", "password is too long")
	default:
		writeError(w, http.StatusBadRequest, "weak_password", "password is too weak")
	}
}
