package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dhanix/internal/domain/auth"
	"dhanix/internal/transport/http/api"
	"dhanix/internal/transport/http/middleware"
	"dhanix/internal/transport/http/shared"
)

type Handler struct {
	Store     *auth.Store
	JWTSecret string
	TokenTTL  time.Duration
}

func NewHandler(db *pgxpool.Pool, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{Store: auth.NewStore(db), JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	if payload.Email != "" && !strings.Contains(payload.Email, "@") {
		v.Add("email", "must be a valid email address")
	}
	if len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	v.Required("fullName", payload.FullName, "fullName is required")
	if v.Reject(w, requestID) {
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "register_failed", "failed to register", requestID)
		return
	}

	userID, err := h.Store.CreateUser(r.Context(), payload.Email, hash, strings.TrimSpace(payload.FullName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			api.Fail(w, http.StatusConflict, "email_taken", "an account with this email already exists", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "register_failed", "failed to register", requestID)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, auth.Claims{UserID: userID, Email: payload.Email}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "register_failed", "failed to issue token", requestID)
		return
	}

	api.Created(w, map[string]any{
		"token": token,
		"user":  userResponse{ID: userID, Email: payload.Email, FullName: payload.FullName},
	}, requestID)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))

	user, err := h.Store.FindUserByEmail(r.Context(), payload.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to log in", requestID)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", requestID)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, auth.Claims{UserID: user.ID, Email: user.Email}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to issue token", requestID)
		return
	}

	api.Success(w, map[string]any{
		"token": token,
		"user":  userResponse{ID: user.ID, Email: user.Email, FullName: user.FullName},
	}, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	userCtx, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	user, err := h.Store.GetUser(r.Context(), userCtx.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "me_failed", "failed to load profile", requestID)
		return
	}
	api.Success(w, userResponse{ID: user.ID, Email: user.Email, FullName: user.FullName}, requestID)
}
