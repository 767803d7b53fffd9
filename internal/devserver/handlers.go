package devserver

import (
	"github.com/gin-gonic/gin"

	"github.com/tasjeel-app/tasjeel/internal/models"
	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
	"github.com/tasjeel-app/tasjeel/pkg/response"
)

type signUpRequest struct {
	Email    string               `json:"email" binding:"required"`
	Password string               `json:"password" binding:"required"`
	Data     models.ProfileFields `json:"data"`
}

type passwordGrantRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleSignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "email and password are required"))
		return
	}
	identity, err := s.auth.SignUp(c.Request.Context(), req.Email, req.Password, req.Data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, identity)
}

func (s *Server) handleToken(c *gin.Context) {
	if c.Query("grant_type") != "password" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported grant_type"))
		return
	}
	var req passwordGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "email and password are required"))
		return
	}
	session, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, session)
}

// handleLogout revokes sessions for the calling identity. Only the
// global scope exists here; every outstanding token for the identity
// stops validating.
func (s *Server) handleLogout(c *gin.Context) {
	claims := currentClaims(c)
	s.auth.SignOutGlobal(claims.Subject)
	response.NoContent(c)
}

func (s *Server) handleCurrentUser(c *gin.Context) {
	claims := currentClaims(c)
	response.JSON(c, 200, models.Identity{ID: claims.Subject, Email: claims.Email})
}

func (s *Server) handleHealth(c *gin.Context) {
	response.JSON(c, 200, gin.H{"status": "ok", "env": s.env})
}
