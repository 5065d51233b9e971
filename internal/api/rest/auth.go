package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/auth"
	"github.com/KevinKickass/mtconnect-core/internal/types"
)

type IssueTokenRequest struct {
	Subject string `json:"subject" binding:"required"`
	Role    string `json:"role" binding:"required,oneof=reader adapter admin"`
}

type IssueTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// POST /api/v1/auth/tokens
func (s *Server) issueToken(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse("AUTH_400", "Invalid request body", err.Error()))
		return
	}

	token, err := s.authService.IssueToken(req.Subject, req.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("AUTH_500", "Failed to issue token", err.Error()))
		return
	}

	s.logger.Info("Token issued",
		zap.String("subject", req.Subject),
		zap.String("role", req.Role),
		zap.String("issued_by", auth.Subject(c)))

	c.JSON(http.StatusCreated, IssueTokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}
