package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/Scalingo/ghlangstats/aggregator"
	"github.com/Scalingo/ghlangstats/config"
	"github.com/Scalingo/ghlangstats/metrics"
	"github.com/Scalingo/ghlangstats/model"
	"github.com/Scalingo/ghlangstats/render"
	"github.com/Scalingo/ghlangstats/service"
	log "github.com/sirupsen/logrus"
)

// Source selects where the languages come from
type Source string

const (
	// SourceREST lists the repositories and loads their languages one by one
	SourceREST Source = "rest"

	// SourceGraphQL ranks the top languages each repository reports in the profile query
	SourceGraphQL Source = "graphql"
)

// ParseSource converts a configuration value, empty means rest
func ParseSource(value string) (Source, error) {
	switch Source(value) {
	case "", SourceREST:
		return SourceREST, nil
	case SourceGraphQL:
		return SourceGraphQL, nil
	default:
		return "", fmt.Errorf("unknown source %q, expected rest or graphql", value)
	}
}

// Options describes one generation run
type Options struct {
	Username    string
	Source      Source
	Unit        aggregator.Unit
	Limit       int
	LocalPaths  []string // when set, local checkouts are scanned instead of github
	WithProfile bool

	SVGPath      string
	HTMLPath     string
	MarkdownPath string
	ReadmePath   string
	MarkerStart  string
	MarkerEnd    string
	ChartTitle   string

	WithProjects        bool
	ProjectsPath        string
	ProjectsMarkerStart string
	ProjectsMarkerEnd   string
	ProjectLimits       render.ProjectLimits
}

// OptionsFromConfig fills the options from the configuration file
func OptionsFromConfig(cfg config.Config) (Options, error) {
	unit, err := aggregator.ParseUnit(cfg.Stats.Unit)
	if err != nil {
		return Options{}, err
	}

	source, err := ParseSource(cfg.Stats.Source)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Username:            cfg.Github.Username,
		Source:              source,
		Unit:                unit,
		Limit:               cfg.Stats.Limit,
		WithProfile:         cfg.Github.Token != "",
		SVGPath:             cfg.Output.SVGPath,
		HTMLPath:            cfg.Output.HTMLPath,
		MarkdownPath:        cfg.Output.MarkdownPath,
		ReadmePath:          cfg.Output.ReadmePath,
		MarkerStart:         cfg.Output.MarkerStart,
		MarkerEnd:           cfg.Output.MarkerEnd,
		ChartTitle:          cfg.Output.ChartTitle,
		WithProjects:        cfg.Projects.Enabled,
		ProjectsPath:        cfg.Projects.Path,
		ProjectsMarkerStart: cfg.Projects.MarkerStart,
		ProjectsMarkerEnd:   cfg.Projects.MarkerEnd,
		ProjectLimits: render.ProjectLimits{
			Latest:  cfg.Projects.MaxLatest,
			Recent:  cfg.Projects.MaxRecent,
			Popular: cfg.Projects.MaxPopular,
			More:    cfg.Projects.MaxMore,
		},
	}, nil
}

// Result is what a run produced
type Result struct {
	Entries      []aggregator.RankedEntry
	Unit         aggregator.Unit
	Profile      *model.Profile
	Repositories int
	Stars        int
	Projects     int
	Written      []string
}

type Generator struct {
	githubService  service.GithubService
	profileService service.ProfileService
	localService   service.LocalService
}

// NewGenerator wires the data sources, any of them may be nil when the run does not need it
func NewGenerator(githubService service.GithubService, profileService service.ProfileService, localService service.LocalService) *Generator {
	return &Generator{
		githubService:  githubService,
		profileService: profileService,
		localService:   localService,
	}
}

// dataset is what a source loaded, ready to be ranked
type dataset struct {
	repos   []model.GithubRepository
	records []aggregator.Record
	profile *model.Profile
	unit    aggregator.Unit
	count   int
}

// Collect loads the repositories and their languages
// the result is complete or an error is returned, never a partial list
func (g *Generator) Collect(ctx context.Context, opts Options) ([]model.GithubRepository, error) {
	if len(opts.LocalPaths) > 0 {
		if g.localService == nil {
			return nil, fmt.Errorf("local service is not configured")
		}

		repos := make([]model.GithubRepository, 0, len(opts.LocalPaths))

		for _, path := range opts.LocalPaths {
			repo, err := g.localService.ScanRepository(ctx, path)
			if err != nil {
				return nil, err
			}

			repos = append(repos, repo)
		}

		return repos, nil
	}

	if g.githubService == nil {
		return nil, fmt.Errorf("github service is not configured")
	}

	repos, err := g.githubService.ListUserRepositories(ctx, opts.Username)
	if err != nil {
		return nil, err
	}

	return g.githubService.GetRepositoriesLanguages(ctx, repos)
}

func (g *Generator) load(ctx context.Context, opts Options) (dataset, error) {
	if opts.Source != SourceGraphQL || len(opts.LocalPaths) > 0 {
		repos, err := g.Collect(ctx, opts)
		if err != nil {
			return dataset{}, err
		}

		return dataset{
			repos:   repos,
			records: service.BuildRecords(repos, opts.Unit),
			unit:    opts.Unit,
			count:   len(repos),
		}, nil
	}

	if g.profileService == nil {
		return dataset{}, fmt.Errorf("GRAPHQL_UNAVAILABLE")
	}

	if opts.Unit != aggregator.UnitRepositories {
		log.WithField("unit", opts.Unit).Info("graphql source only lists languages, counting repositories instead")
	}

	profile, err := g.profileService.FetchProfile(ctx, opts.Username)
	if err != nil {
		return dataset{}, err
	}

	return dataset{
		records: service.ProfileRecords(profile),
		profile: &profile,
		unit:    aggregator.UnitRepositories,
		count:   len(profile.Languages),
	}, nil
}

// rankRecords turns loaded records into the ranked languages
func rankRecords(records []aggregator.Record, unit aggregator.Unit, limit int) ([]aggregator.RankedEntry, error) {
	usage, err := aggregator.Accumulate(records)
	if err != nil {
		metrics.Rankings.WithLabelValues("invalid_weight").Inc()
		return nil, err
	}

	entries, err := aggregator.Rank(usage, limit)
	if err != nil {
		if errors.Is(err, aggregator.ErrInvalidWeight) {
			metrics.Rankings.WithLabelValues("invalid_weight").Inc()
		} else {
			metrics.Rankings.WithLabelValues("empty_dataset").Inc()
		}

		return nil, err
	}

	metrics.Rankings.WithLabelValues("ok").Inc()

	log.WithFields(log.Fields{
		"unit":       unit,
		"languages":  usage.Len(),
		"grandTotal": usage.GrandTotal(),
		"entries":    len(entries),
		"records":    len(records),
	}).Debug("languages ranked")

	return entries, nil
}

// Languages fetches and ranks the languages of a github user
func (g *Generator) Languages(ctx context.Context, opts Options) ([]aggregator.RankedEntry, []model.GithubRepository, error) {
	data, err := g.load(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	entries, err := rankRecords(data.records, data.unit, opts.Limit)
	if err != nil {
		return nil, data.repos, err
	}

	return entries, data.repos, nil
}

// Run executes fetch, aggregate and render, then writes every configured artifact
// artifacts are all rendered before the first write, nothing is written when a stage fails
func (g *Generator) Run(ctx context.Context, opts Options) (Result, error) {
	data, err := g.load(ctx, opts)
	if err != nil {
		return Result{}, err
	}

	entries, err := rankRecords(data.records, data.unit, opts.Limit)
	if err != nil {
		if errors.Is(err, aggregator.ErrEmptyDataset) {
			log.WithField("username", opts.Username).Warning("no language found. no artifact written")
		}

		return Result{}, err
	}

	result := Result{
		Entries:      entries,
		Unit:         data.unit,
		Profile:      data.profile,
		Repositories: data.count,
		Stars:        service.TotalStars(data.repos),
	}

	if result.Profile == nil && opts.WithProfile && g.profileService != nil && len(opts.LocalPaths) == 0 {
		profile, err := g.profileService.FetchProfile(ctx, opts.Username)
		if err != nil {
			return Result{}, err
		}

		result.Profile = &profile
	}

	if result.Profile != nil {
		result.Stars = result.Profile.TotalStars
	}

	artifacts, err := g.renderArtifacts(entries, data, result.Profile, opts)
	if err != nil {
		return Result{}, err
	}

	result.Projects = artifacts.projects

	// readme first, missing markers must not leave the other files regenerated
	if opts.ReadmePath != "" && len(artifacts.readmeBlocks) > 0 {
		changed, err := render.UpdateReadme(opts.ReadmePath, artifacts.readmeBlocks...)
		if err != nil {
			return Result{}, fmt.Errorf("unable to update %s: %w", opts.ReadmePath, err)
		}

		if changed {
			result.Written = append(result.Written, opts.ReadmePath)
		}
	}

	for _, file := range artifacts.files {
		if err := render.WriteFile(file.path, file.content); err != nil {
			return result, fmt.Errorf("unable to write %s: %w", file.path, err)
		}

		log.WithField("path", file.path).Info("artifact written")
		result.Written = append(result.Written, file.path)
	}

	return result, nil
}

type artifact struct {
	path    string
	content []byte
}

type artifacts struct {
	files        []artifact
	readmeBlocks []render.Block
	projects     int
}

func (g *Generator) renderArtifacts(entries []aggregator.RankedEntry, data dataset, profile *model.Profile, opts Options) (artifacts, error) {
	var out artifacts

	if opts.SVGPath != "" {
		var buf bytes.Buffer
		if err := render.SVG(&buf, entries, render.DefaultSVGOptions(opts.ChartTitle)); err != nil {
			return out, err
		}

		out.files = append(out.files, artifact{path: opts.SVGPath, content: buf.Bytes()})
	}

	if opts.HTMLPath != "" {
		var buf bytes.Buffer
		if err := render.HTMLChart(&buf, entries, opts.ChartTitle); err != nil {
			return out, err
		}

		out.files = append(out.files, artifact{path: opts.HTMLPath, content: buf.Bytes()})
	}

	if opts.MarkdownPath != "" || opts.ReadmePath != "" {
		fragment, err := render.Markdown(entries, data.unit, profile)
		if err != nil {
			return out, err
		}

		if opts.ReadmePath != "" {
			out.readmeBlocks = append(out.readmeBlocks, render.Block{Start: opts.MarkerStart, End: opts.MarkerEnd, Content: fragment})
		}

		if opts.MarkdownPath != "" {
			content := "# GitHub Stats (Auto-Generated)\n\n" + fragment
			out.files = append(out.files, artifact{path: opts.MarkdownPath, content: []byte(content)})
		}
	}

	if !opts.WithProjects {
		return out, nil
	}

	// scanned checkouts and the graphql source carry no repository metadata
	if len(opts.LocalPaths) > 0 || len(data.repos) == 0 {
		log.WithField("source", opts.Source).Warning("projects listing needs the github repositories. skipped")
		return out, nil
	}

	sections := render.SelectProjects(data.repos, opts.ProjectLimits)

	block, err := render.ProjectsMarkdown(sections)
	if err != nil {
		return out, err
	}

	out.projects = sections.Len()

	if opts.ReadmePath != "" {
		out.readmeBlocks = append(out.readmeBlocks, render.Block{Start: opts.ProjectsMarkerStart, End: opts.ProjectsMarkerEnd, Content: block})
	}

	if opts.ProjectsPath != "" {
		out.files = append(out.files, artifact{path: opts.ProjectsPath, content: []byte("# Projects (Auto-Generated)\n\n" + block)})
	}

	return out, nil
}
