package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Scalingo/ghlangstats/aggregator"
	"github.com/Scalingo/ghlangstats/config"
	"github.com/Scalingo/ghlangstats/generator"
	"github.com/Scalingo/ghlangstats/logger"
	"github.com/Scalingo/ghlangstats/model"
	"github.com/Scalingo/ghlangstats/render"
	"github.com/Scalingo/ghlangstats/service"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type generateFlags struct {
	user        string
	unit        string
	limit       int
	svg         string
	html        string
	markdown    string
	readme      string
	local       []string
	source      string
	projects    bool
	noProfile   bool
	quietOutput bool
}

func newGenerateCommand() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fetch the repositories, rank their languages and write the artifacts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger.Setup(*cfg, os.Stderr)

			opts, err := generator.OptionsFromConfig(*cfg)
			if err != nil {
				return err
			}

			if err := flags.apply(cmd, &opts); err != nil {
				return err
			}

			gen, err := newGenerator(cmd.Context(), *cfg, opts)
			if err != nil {
				return err
			}

			result, err := gen.Run(cmd.Context(), opts)
			if err != nil {
				color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "generation failed: %v\n", err)
				return err
			}

			if !flags.quietOutput {
				printSummary(cmd.OutOrStdout(), result)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.user, "user", "u", "", "github username, overrides GITHUB.Username")
	cmd.Flags().StringVar(&flags.unit, "unit", "", "weight unit: bytes or repositories")
	cmd.Flags().IntVarP(&flags.limit, "limit", "n", 0, "number of languages to keep, 0 keeps all")
	cmd.Flags().StringVar(&flags.svg, "svg", "", "svg chart output path")
	cmd.Flags().StringVar(&flags.html, "html", "", "interactive html chart output path")
	cmd.Flags().StringVar(&flags.markdown, "markdown", "", "markdown stats output path")
	cmd.Flags().StringVar(&flags.readme, "readme", "", "readme in which the block between markers is replaced")
	cmd.Flags().StringSliceVar(&flags.local, "local", nil, "scan local checkouts instead of github, no network access")
	cmd.Flags().StringVar(&flags.source, "source", "", "language source: rest or graphql")
	cmd.Flags().BoolVar(&flags.projects, "projects", false, "also write the projects listing")
	cmd.Flags().BoolVar(&flags.noProfile, "no-profile", false, "skip the graphql profile statistics")
	cmd.Flags().BoolVarP(&flags.quietOutput, "quiet", "q", false, "do not print the summary table")

	return cmd
}

// apply overrides the configuration with the flags explicitly set
func (f generateFlags) apply(cmd *cobra.Command, opts *generator.Options) error {
	changed := cmd.Flags().Changed

	if changed("user") {
		opts.Username = f.user
	}

	if changed("unit") {
		unit, err := aggregator.ParseUnit(f.unit)
		if err != nil {
			return err
		}

		opts.Unit = unit
	}

	if changed("limit") {
		if f.limit < 0 {
			return fmt.Errorf("limit must be positive, got %d", f.limit)
		}

		opts.Limit = f.limit
	}

	if changed("svg") {
		opts.SVGPath = f.svg
	}

	if changed("html") {
		opts.HTMLPath = f.html
	}

	if changed("markdown") {
		opts.MarkdownPath = f.markdown
	}

	if changed("readme") {
		opts.ReadmePath = f.readme
	}

	if changed("local") {
		opts.LocalPaths = f.local
	}

	if changed("source") {
		source, err := generator.ParseSource(f.source)
		if err != nil {
			return err
		}

		opts.Source = source
	}

	if changed("projects") {
		opts.WithProjects = f.projects
	}

	if f.noProfile {
		opts.WithProfile = false
	}

	return nil
}

// newGenerator builds the data sources a run needs
// scanning checkouts never touches the github api
func newGenerator(ctx context.Context, cfg config.Config, opts generator.Options) (*generator.Generator, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(opts.LocalPaths) > 0 {
		return generator.NewGenerator(nil, nil, service.NewLocalService()), nil
	}

	exclusions, err := model.LoadExclusionRules(cfg.Github.ExclusionsFile)
	if err != nil {
		return nil, err
	}

	var profileService service.ProfileService
	if cfg.Github.Token != "" {
		profileService = service.NewProfileService(service.NewGraphQLClient(ctx, cfg.Github.Token), exclusions, cfg.Github.IncludeForks)
	}

	// the graphql source only needs the REST api for the projects listing
	if opts.Source == generator.SourceGraphQL && !opts.WithProjects {
		return generator.NewGenerator(nil, profileService, nil), nil
	}

	githubClient := service.NewGithubClient(cfg.Github.Token)

	rateLimiter, err := service.NewRateLimiter(ctx, githubClient)
	if err != nil {
		return nil, err
	}

	githubService := service.NewGithubService(cfg, githubClient, rateLimiter, exclusions)

	return generator.NewGenerator(githubService, profileService, nil), nil
}

func printSummary(w io.Writer, result generator.Result) {
	fmt.Fprintln(w, render.Table(result.Entries, result.Unit))

	if result.Profile != nil {
		fmt.Fprintf(w, "commits: %d, pull requests: %d, issues: %d\n",
			result.Profile.TotalCommitContributions,
			result.Profile.TotalPullRequests,
			result.Profile.TotalIssueContributions,
		)
	}

	green := color.New(color.FgGreen)
	green.Fprintf(w, "%d repositories aggregated, %d stars\n", result.Repositories, result.Stars)

	if result.Projects > 0 {
		green.Fprintf(w, "%d projects listed\n", result.Projects)
	}

	for _, path := range result.Written {
		green.Fprintf(w, "written %s\n", path)
	}

	if len(result.Written) == 0 {
		color.New(color.FgYellow).Fprintln(w, "no artifact changed")
	}
}
