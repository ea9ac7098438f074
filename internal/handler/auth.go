package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/train-seat-reservation/internal/account"
	"github.com/iliyamo/train-seat-reservation/internal/middleware"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Accounts *account.Service
	AdminKey string
	Logger   *zap.Logger
}

func NewAuthHandler(accounts *account.Service, adminKey string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Accounts: accounts, AdminKey: adminKey, Logger: logger}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}
type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

func sessionResp(s account.Session) authResp {
	return authResp{
		User:   userPart{ID: s.User.ID, Username: s.User.Username, Email: s.User.Email, Role: s.User.Role},
		Access: tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
	}
}

// Register creates a user and returns an access token immediately.  An
// admin account can only be created by a caller that also presents the
// administrator API key.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.IsAdmin && !middleware.ValidAPIKey(h.AdminKey, c.Request().Header.Get(middleware.APIKeyHeader)) {
		return c.JSON(http.StatusForbidden, apiError{Error: "forbidden", Message: "admin registration requires the api key"})
	}
	sess, err := h.Accounts.Register(c.Request().Context(), req.Username, req.Email, req.Password, req.IsAdmin)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, sessionResp(sess))
}

// Login verifies credentials and returns a fresh access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Username == "" || req.Password == "" {
		return writeError(c, h.Logger, account.ErrInvalidInput)
	}
	sess, err := h.Accounts.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, sessionResp(sess))
}

// Me echoes the identity carried by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apiError{Error: "unauthorized", Message: "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":       id,
		"username": c.Get(middleware.CtxUsername),
		"role":     c.Get(middleware.CtxRole),
	})
}
