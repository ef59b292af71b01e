package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Scalingo/ghlangstats/config"
	"github.com/Scalingo/ghlangstats/controller"
	"github.com/Scalingo/ghlangstats/logger"
	"github.com/Scalingo/ghlangstats/model"
	"github.com/Scalingo/ghlangstats/service"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if port != "" {
				cfg.API.ListenPort = port
			}

			// configure logger
			logger.Setup(*cfg, os.Stderr)

			return serve(cmd.Context(), *cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port, overrides API.ListenPort")

	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	exclusions, err := model.LoadExclusionRules(cfg.Github.ExclusionsFile)
	if err != nil {
		return err
	}

	// setup github client
	// we do here and pass the client to Github service to easily improve tests with mock client
	githubClient := service.NewGithubClient(cfg.Github.Token)

	rateLimiter, err := service.NewRateLimiter(ctx, githubClient)
	if err != nil {
		return err
	}

	// setup handlers and services
	githubService := service.NewGithubService(cfg, githubClient, rateLimiter, exclusions)

	var apiController controller.APIController
	if cfg.Github.Token != "" {
		profileService := service.NewProfileService(service.NewGraphQLClient(ctx, cfg.Github.Token), exclusions, cfg.Github.IncludeForks)
		apiController = controller.NewAPIController(cfg, githubService, profileService)
	} else {
		log.Info("no github token configured. /stats is disabled")
		apiController = controller.NewAPIController(cfg, githubService, nil)
	}

	// setup server and define all routes
	gin.SetMode(gin.ReleaseMode)

	server := &http.Server{
		Addr:              ":" + cfg.API.ListenPort,
		Handler:           controller.NewRouter(apiController),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// start with configuration
	go func() {
		log.Info("server listening on port " + cfg.API.ListenPort)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("error while starting server")
		}
	}()

	// wait for interrupt signal to gracefully shut down the server with a timeout of 15 seconds.
	// kill default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("SIGINT, SIGTERM received, will shut down server ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		return err
	}

	log.Info("Application stopped gracefully !")
	return nil
}
