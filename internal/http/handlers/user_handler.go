// User profile HTTP handlers.
//
// This file exposes REST endpoints for the account profile:
//   - GET    /users/profile   (fetch profile)
//   - PUT    /users/profile   (update display name / username)
//   - DELETE /users/account   (delete account and all analysis records)
//   - GET    /users/stats     (aggregate analysis activity)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sentiment-backend/internal/services"
)

// UpdateProfileRequest is the JSON payload for editing a profile.
// Empty fields keep their current values.
type UpdateProfileRequest struct {
	// Name is the display name (up to 100 chars).
	Name string `json:"name" example:"Alice Liddell"`
	// Username must be 3-30 characters: letters, digits, underscores.
	Username string `json:"username" example:"alice_92"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Fetch the current user's profile
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
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

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update the current user's profile
// @Description Updates display name and/or username. Empty fields keep current values.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.UpdateProfileRequest  true  "Profile edits"
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid username"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     409  {object}  handlers.ErrorResponse  "Username already taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.userSvc.UpdateProfile(c.Request.Context(), userID(c), req.Name, req.Username)
	if err != nil {
		switch err {
		case services.ErrInvalidUsername:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username must be 3-30 characters: letters, digits, underscores")
		case services.ErrUsernameTaken:
			fail(c, http.StatusConflict, ErrCodeConflict, "username already taken")
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteAccount godoc
// @ID          deleteAccount
// @Summary     Delete the current user's account
// @Description Permanently removes the account and every stored analysis record.
// @Tags        Users
// @Security    BearerAuth
//
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/account [delete]
func (h *Handlers) DeleteAccount(c *gin.Context) {
	if err := h.userSvc.DeleteAccount(c.Request.Context(), userID(c)); err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// UserStats godoc
// @ID          userStats
// @Summary     Aggregate the current user's analysis activity
// @Description Returns total analyses, per-sentiment counts, and the five most recent records.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  services.UserStats
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/stats [get]
func (h *Handlers) UserStats(c *gin.Context) {
	stats, err := h.analysisSvc.Stats(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}
