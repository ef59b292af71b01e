package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Scalingo/ghlangstats/aggregator"
	"github.com/Scalingo/ghlangstats/config"
	"github.com/Scalingo/ghlangstats/generator"
	"github.com/Scalingo/ghlangstats/model"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFlagsOverrideConfig(t *testing.T) {
	conf := config.GetDefault()
	conf.Github.Username = "octocat"
	conf.Github.Token = "token"

	tests := []struct {
		name     string
		args     []string
		expected func(opts *generator.Options)
		wantErr  bool
	}{
		{
			name:     "No flags keeps configuration",
			args:     []string{},
			expected: func(_ *generator.Options) {},
		},
		{
			name: "User unit and limit",
			args: []string{"--user", "hubot", "--unit", "count", "--limit", "3"},
			expected: func(opts *generator.Options) {
				opts.Username = "hubot"
				opts.Unit = aggregator.UnitRepositories
				opts.Limit = 3
			},
		},
		{
			name: "Limit zero keeps every language",
			args: []string{"-n", "0"},
			expected: func(opts *generator.Options) {
				opts.Limit = 0
			},
		},
		{
			name: "Outputs and local paths",
			args: []string{"--svg", "out.svg", "--html", "", "--readme", "README.md", "--local", "a,b", "--no-profile"},
			expected: func(opts *generator.Options) {
				opts.SVGPath = "out.svg"
				opts.HTMLPath = ""
				opts.ReadmePath = "README.md"
				opts.LocalPaths = []string{"a", "b"}
				opts.WithProfile = false
			},
		},
		{
			name: "Graphql source with projects",
			args: []string{"--source", "graphql", "--projects"},
			expected: func(opts *generator.Options) {
				opts.Source = generator.SourceGraphQL
				opts.WithProjects = true
			},
		},
		{
			name:    "Unknown source",
			args:    []string{"--source", "soap"},
			wantErr: true,
		},
		{
			name:    "Unknown unit",
			args:    []string{"--unit", "lines"},
			wantErr: true,
		},
		{
			name:    "Negative limit",
			args:    []string{"--limit", "-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := generator.OptionsFromConfig(*conf)
			require.NoError(t, err)

			cmd := newGenerateCommand()
			require.NoError(t, cmd.ParseFlags(tt.args))

			var flags generateFlags
			flags.user, _ = cmd.Flags().GetString("user")
			flags.unit, _ = cmd.Flags().GetString("unit")
			flags.limit, _ = cmd.Flags().GetInt("limit")
			flags.svg, _ = cmd.Flags().GetString("svg")
			flags.html, _ = cmd.Flags().GetString("html")
			flags.markdown, _ = cmd.Flags().GetString("markdown")
			flags.readme, _ = cmd.Flags().GetString("readme")
			flags.local, _ = cmd.Flags().GetStringSlice("local")
			flags.source, _ = cmd.Flags().GetString("source")
			flags.projects, _ = cmd.Flags().GetBool("projects")
			flags.noProfile, _ = cmd.Flags().GetBool("no-profile")

			opts := base
			err = flags.apply(cmd, &opts)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)

			expected := base
			tt.expected(&expected)
			assert.Equal(t, expected, opts)
		})
	}
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	printSummary(&out, generator.Result{
		Entries: []aggregator.RankedEntry{
			{Name: "Go", Weight: 750, Percent: 75},
			{Name: "Shell", Weight: 250, Percent: 25},
		},
		Unit:         aggregator.UnitBytes,
		Profile:      &model.Profile{TotalStars: 42, TotalCommitContributions: 7},
		Repositories: 3,
		Stars:        42,
		Projects:     2,
		Written:      []string{"languages-chart.svg"},
	})

	assert.Contains(t, out.String(), "Go")
	assert.Contains(t, out.String(), "75.00%")
	assert.Contains(t, out.String(), "commits: 7")
	assert.Contains(t, out.String(), "3 repositories aggregated, 42 stars")
	assert.Contains(t, out.String(), "2 projects listed")
	assert.Contains(t, out.String(), "written languages-chart.svg")
	assert.NotContains(t, out.String(), "no artifact changed")
}

func TestGenerateLocalWithoutNetwork(t *testing.T) {
	// any github call would fail on this proxy
	t.Setenv("HTTPS_PROXY", "http://127.0.0.1:1")
	t.Setenv("HTTP_PROXY", "http://127.0.0.1:1")

	root := filepath.Join(t.TempDir(), "checkout")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o600))

	conf := config.GetDefault()
	conf.Github.Token = "token"
	conf.Github.ExclusionsFile = filepath.Join(t.TempDir(), "missing.yaml")

	opts, err := generator.OptionsFromConfig(*conf)
	require.NoError(t, err)

	opts.LocalPaths = []string{root}
	opts.SVGPath = filepath.Join(t.TempDir(), "languages.svg")
	opts.WithProjects = true

	gen, err := newGenerator(context.Background(), *conf, opts)
	require.NoError(t, err)

	result, err := gen.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Nil(t, result.Profile)
	assert.Equal(t, []aggregator.RankedEntry{{Name: "Go", Weight: 13, Percent: 100}}, result.Entries)
	assert.Equal(t, []string{opts.SVGPath}, result.Written)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer

	cmd := versionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "ghlangstats dev\n", out.String())
}
