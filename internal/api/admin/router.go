package admin

import (
	"github.com/ZJUSCT/rankboard/internal/api"
	"github.com/ZJUSCT/rankboard/internal/config"
	"github.com/ZJUSCT/rankboard/internal/service"
	"github.com/gin-gonic/gin"
)

// NewAdminRouter creates the moderator Gin engine. Every route needs a token
// whose actor moderates the track in question.
func NewAdminRouter(cfg *config.Config, svc *service.Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger())
	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, svc)

	v1 := r.Group("/api/v1")
	v1.Use(api.AuthMiddleware(cfg.Auth.JWT.Secret))
	{
		tracks := v1.Group("/tracks/:track")
		tracks.Use(api.TrackMiddleware(), api.RequireModerator(cfg.Moderation))
		{
			// Problem Management
			tracks.POST("/problems", h.createProblem)
			tracks.PATCH("/problems/:id", h.updateProblem)
			tracks.DELETE("/problems/:id", h.deleteProblem)

			// Review
			tracks.GET("/review-queue", h.getReviewQueue)
			tracks.POST("/submissions/:id/score", h.scoreSubmission)

			// Publication
			tracks.POST("/publication", h.planPublication)
		}

		v1.POST("/renderings", api.RequireModerator(cfg.Moderation), h.recordRendering)
	}

	return r
}
