package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required,max=36"`
	Password string `json:"password" binding:"required,max=128"`
}

// POST /api/users
func (h *handlers) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.Accounts.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// POST /api/sessions
func (h *handlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	id, token, err := h.Accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortError(c, err)
		return
	}

	s := sessions.Default(c)
	s.Set(sessionTokenKey, token)
	if err := s.Save(); err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"userId":    id.UserID,
		"username":  id.Username,
		"expiresIn": int(h.tokenTTL.Seconds()),
	})
}

// DELETE /api/sessions
func (h *handlers) logout(c *gin.Context) {
	s := sessions.Default(c)
	s.Delete(sessionTokenKey)
	if err := s.Save(); err != nil {
		abortError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
