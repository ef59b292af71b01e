package controller

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/Scalingo/ghlangstats/aggregator"
	"github.com/Scalingo/ghlangstats/config"
	"github.com/Scalingo/ghlangstats/generator"
	"github.com/Scalingo/ghlangstats/model"
	"github.com/Scalingo/ghlangstats/render"
	"github.com/Scalingo/ghlangstats/service"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type APIController interface {
	GetRepositories(ctx *gin.Context)
	GetLanguages(ctx *gin.Context)
	GetLanguagesChart(ctx *gin.Context)
	GetStats(ctx *gin.Context)
}

type apiController struct {
	githubService  service.GithubService
	profileService service.ProfileService
	generator      *generator.Generator
	config         config.Config
}

// NewAPIController builds the controller, profileService is nil when no token is configured
func NewAPIController(config config.Config, githubService service.GithubService, profileService service.ProfileService) APIController {
	return apiController{
		githubService:  githubService,
		profileService: profileService,
		generator:      generator.NewGenerator(githubService, profileService, nil),
		config:         config,
	}
}

func (s apiController) GetRepositories(c *gin.Context) {
	var searchQuery model.SearchQuery
	if err := c.ShouldBindQuery(&searchQuery); err != nil {
		abortWithError(c, fmt.Errorf("INVALID_QUERY"))
		return
	}

	// execute the request
	repos, err := s.githubService.FetchLastHundredRepositories(c, searchQuery)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, repos)
}

// GetLanguages returns the ranked languages of a user as json
func (s apiController) GetLanguages(c *gin.Context) {
	entries, ok := s.rankLanguages(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, entries)
}

// GetLanguagesChart returns the ranked languages of a user as a svg bar chart
// no chart is produced when ranking fails, the json error is returned instead
func (s apiController) GetLanguagesChart(c *gin.Context) {
	entries, ok := s.rankLanguages(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.SVG(&buf, entries, render.DefaultSVGOptions(s.config.Output.ChartTitle)); err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Cache-Control", "max-age=3600")
	c.Data(http.StatusOK, "image/svg+xml; charset=utf-8", buf.Bytes())
}

// GetStats returns the account statistics loaded from the GraphQL API
func (s apiController) GetStats(c *gin.Context) {
	if s.profileService == nil {
		abortWithError(c, fmt.Errorf("GRAPHQL_UNAVAILABLE"))
		return
	}

	profile, err := s.profileService.FetchProfile(c, s.username(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (s apiController) rankLanguages(c *gin.Context) ([]aggregator.RankedEntry, bool) {
	var query model.LanguagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		abortWithError(c, fmt.Errorf("INVALID_QUERY"))
		return nil, false
	}

	opts, err := generator.OptionsFromConfig(s.config)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}

	opts.Username = s.username(c)

	if query.Limit != nil {
		opts.Limit = *query.Limit
	}

	if query.Unit != "" {
		if opts.Unit, err = aggregator.ParseUnit(query.Unit); err != nil {
			abortWithError(c, fmt.Errorf("INVALID_QUERY"))
			return nil, false
		}
	}

	entries, _, err := s.generator.Languages(c, opts)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}

	return entries, true
}

func (s apiController) username(c *gin.Context) string {
	if user := c.Query("user"); user != "" {
		return user
	}

	return s.config.Github.Username
}

func abortWithError(c *gin.Context, err error) {
	apiErr := model.NewAPIError(err)

	log.WithFields(log.Fields{
		"path": c.Request.URL.Path,
		"code": apiErr.Code,
	}).Debug("request failed")

	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
