package user

import (
	"github.com/ZJUSCT/rankboard/internal/config"
	"github.com/ZJUSCT/rankboard/internal/service"
)

// Handler holds all dependencies for the user API handlers.
type Handler struct {
	cfg *config.Config
	svc *service.Services
}

func NewHandler(cfg *config.Config, svc *service.Services) *Handler {
	return &Handler{cfg: cfg, svc: svc}
}
