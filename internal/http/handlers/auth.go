package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/certifytrack-backend/internal/http/response"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, out)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(dbc(c))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, user)
}
