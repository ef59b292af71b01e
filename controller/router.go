package controller

import (
	"time"

	"github.com/Scalingo/ghlangstats/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter define all routes
func NewRouter(apiController APIController) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Content-Type, Content-Length, Accept-Encoding, Host, accept, Origin, Cache-Control, X-Requested-With"},
			MaxAge:       12 * time.Hour,
		}),
	)

	api := router.Group("")
	{
		api.GET("/repos", apiController.GetRepositories)
		api.GET("/languages", apiController.GetLanguages)
		api.GET("/languages.svg", apiController.GetLanguagesChart)
		api.GET("/stats", apiController.GetStats)
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}
