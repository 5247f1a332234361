package user

import (
	"github.com/ZJUSCT/rankboard/internal/api"
	"github.com/ZJUSCT/rankboard/internal/config"
	"github.com/ZJUSCT/rankboard/internal/service"
	"github.com/gin-gonic/gin"
)

// NewUserRouter creates and configures the user Gin engine.
func NewUserRouter(cfg *config.Config, svc *service.Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger())
	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, svc)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/ws/tracks/:track/leaderboard", api.TrackMiddleware(), h.handleLeaderboardWs)
		v1.GET("/users/:userID/profile", h.getProfile)

		// Publicly accessible info
		tracks := v1.Group("/tracks/:track")
		tracks.Use(api.TrackMiddleware())
		{
			tracks.GET("/problems", h.listProblems)
			tracks.GET("/problems/:id", h.getProblem)
			tracks.GET("/leaderboard", h.getLeaderboard)
			tracks.GET("/users/:userID/stats", h.getUserStats)
		}

		// Authenticated routes
		authed := v1.Group("/")
		authed.Use(api.AuthMiddleware(cfg.Auth.JWT.Secret))
		{
			authed.GET("/user/history", h.getHistory)
			authed.POST("/tracks/:track/submissions", api.TrackMiddleware(), h.submit)
		}
	}

	return r
}
