package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v66/github"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// NewGithubClient builds the REST client, authenticated when a token is available
func NewGithubClient(token string) *github.Client {
	githubClient := github.NewClient(nil)

	if token != "" {
		log.Debug("will setup github client with authorization token")
		githubClient = githubClient.WithAuthToken(token)
	}

	return githubClient
}

// NewRateLimiter executes a first request to github to fetch current rate limits
// and returns a local limiter already consuming the requests made elsewhere
func NewRateLimiter(ctx context.Context, githubClient *github.Client) (*rate.Limiter, error) {
	log.Debug("loading current rate limit from github")
	rateLimits, _, err := githubClient.RateLimit.Get(ctx)

	if err != nil {
		return nil, fmt.Errorf("unable to load current github rate limits: %w", err)
	}

	if rateLimits == nil || rateLimits.Core == nil {
		return nil, fmt.Errorf("github returned no core rate limit")
	}

	log.WithFields(log.Fields{
		"totalAvailable":    rateLimits.Core.Limit,
		"remainingRequests": rateLimits.Core.Remaining,
	}).Debug("will setup local rate limiter with rate limits infos from github")

	// consume X tokens according to the number of remaining tokens
	// this help us to have a right rate limiter even if external requests are made
	rateLimiter := rate.NewLimiter(rate.Every(time.Hour/time.Duration(max(rateLimits.Core.Limit, 1))), rateLimits.Core.Limit)

	if !rateLimiter.AllowN(time.Now(), rateLimits.Core.Limit-rateLimits.Core.Remaining) {
		return nil, fmt.Errorf("unable to configure the github rate limiter")
	}

	return rateLimiter, nil
}
