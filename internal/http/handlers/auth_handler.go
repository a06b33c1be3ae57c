// Auth HTTP handlers.
//
// This file exposes REST endpoints for account lifecycle:
//   - POST /auth/register          (create account, returns token)
//   - POST /auth/login             (verify credentials, returns token)
//   - GET  /auth/me                (current account)
//   - PUT  /auth/change-password   (rotate password)
//
// Handlers are transport-thin: they validate input, call the AuthService, and
// translate sentinel errors into stable HTTP error codes. Credential failures
// deliberately share one message so responses never reveal whether an email
// is registered.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	// Username must be 3-30 characters: letters, digits, underscores.
	Username string `json:"username" binding:"required" example:"alice_92"`
	// Email must be a valid address; it is stored lowercased.
	Email string `json:"email" binding:"required" example:"alice@example.com"`
	// Password must be at least 8 characters with upper, lower, and digit.
	Password string `json:"password" binding:"required" example:"Str0ngPass"`
	// Name optionally sets a display name.
	Name string `json:"name" example:"Alice Liddell"`
}

// LoginRequest is the JSON payload for signing in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"alice@example.com"`
	Password string `json:"password" binding:"required" example:"Str0ngPass"`
}

// ChangePasswordRequest is the JSON payload for rotating a password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required" example:"Str0ngPass"`
	NewPassword     string `json:"new_password" binding:"required" example:"Ev3nStronger"`
}

// TokenResponse wraps an authenticated user and their bearer token.
type TokenResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a new user and returns the account plus a signed bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  handlers.TokenResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failure"
// @Failure     409  {object}  handlers.ErrorResponse  "Email or username already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username, email, and password required")
		return
	}

	u, token, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Name)
	if err != nil {
		switch err {
		case services.ErrInvalidUsername:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username must be 3-30 characters: letters, digits, underscores")
		case services.ErrInvalidEmail:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid email address")
		case services.ErrWeakPassword:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "password must be at least 8 characters with upper, lower, and digit")
		case services.ErrEmailTaken:
			fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
		case services.ErrUsernameTaken:
			fail(c, http.StatusConflict, ErrCodeConflict, "username already taken")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeRegisterFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, TokenResponse{User: u, Token: token})
}

// Login godoc
// @ID          login
// @Summary     Sign in
// @Description Verifies credentials and returns the account plus a signed bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object}  handlers.TokenResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}

	u, token, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch err {
		case services.ErrInvalidCredentials:
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, TokenResponse{User: u, Token: token})
}

// Me godoc
// @ID          me
// @Summary     Current account
// @Description Returns the authenticated user's account record.
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.userSvc.Profile(c.Request.Context(), userID(c))
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, u)
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Description Acknowledges logout. Tokens are stateless, so the client is
// @Description expected to discard its copy; nothing is revoked server-side.
// @Tags        Auth
// @Security    BearerAuth
//
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	noContent(c)
}

// ChangePassword godoc
// @ID          changePassword
// @Summary     Change password
// @Description Replaces the authenticated user's password after verifying the current one.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.ChangePasswordRequest  true  "Password rotation payload"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Weak password or bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Current password wrong"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/change-password [put]
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "current_password and new_password required")
		return
	}

	err := h.authSvc.ChangePassword(c.Request.Context(), userID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch err {
		case services.ErrWrongPassword:
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "current password is incorrect")
		case services.ErrWeakPassword:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "password must be at least 8 characters with upper, lower, and digit")
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
