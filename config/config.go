package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/CIDgravity/snakelet"
)

// config structure
type Config struct {
	API      APIConfig      `mapstructure:"API"`
	Tasks    TasksConfig    `mapstructure:"TASKS"`
	Logs     LogsConfig     `mapstructure:"LOGS"`
	Github   GithubConfig   `mapstructure:"GITHUB"`
	Stats    StatsConfig    `mapstructure:"STATS"`
	Output   OutputConfig   `mapstructure:"OUTPUT"`
	Projects ProjectsConfig `mapstructure:"PROJECTS"`
}

type APIConfig struct {
	ListenPort string `mapstructure:"ListenPort"`
}

type TasksConfig struct {
	MaxParallelTasksAllowed int `mapstructure:"MaxParallelTasksAllowed"`
}

type LogsConfig struct {
	Level            string `mapstructure:"Level"` // error | warn | info | debug - case insensitive
	OutputLogsAsJSON bool   `mapstructure:"OutputLogsAsJson"`
}

type GithubConfig struct {
	Token           string `mapstructure:"Token"` // overridden by GITHUB_TOKEN when set
	Username        string `mapstructure:"Username"`
	IncludeForks    bool   `mapstructure:"IncludeForks"`
	IncludeArchived bool   `mapstructure:"IncludeArchived"`
	ExclusionsFile  string `mapstructure:"ExclusionsFile"` // optional yaml file, see model.ExclusionRules
}

type StatsConfig struct {
	Unit   string `mapstructure:"Unit"`   // bytes | repositories
	Limit  int    `mapstructure:"Limit"`  // 0 keeps every language
	Source string `mapstructure:"Source"` // rest | graphql, graphql always counts repositories
}

type OutputConfig struct {
	SVGPath      string `mapstructure:"SVGPath"`
	HTMLPath     string `mapstructure:"HTMLPath"`
	MarkdownPath string `mapstructure:"MarkdownPath"`
	ReadmePath   string `mapstructure:"ReadmePath"`
	MarkerStart  string `mapstructure:"MarkerStart"`
	MarkerEnd    string `mapstructure:"MarkerEnd"`
	ChartTitle   string `mapstructure:"ChartTitle"`
}

// ProjectsConfig drives the repository listing block
type ProjectsConfig struct {
	Enabled     bool   `mapstructure:"Enabled"`
	Path        string `mapstructure:"Path"` // optional standalone listing file
	MarkerStart string `mapstructure:"MarkerStart"`
	MarkerEnd   string `mapstructure:"MarkerEnd"`
	MaxLatest   int    `mapstructure:"MaxLatest"`
	MaxRecent   int    `mapstructure:"MaxRecent"`
	MaxPopular  int    `mapstructure:"MaxPopular"`
	MaxMore     int    `mapstructure:"MaxMore"`
}

// Load reads config/config.toml next to the binary, or from the working directory
func Load() (*Config, error) {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))

	if err != nil {
		return nil, err
	}

	// check config file exists
	configFilePath := dir + "/config/config.toml"

	if _, err := os.Stat(configFilePath); errors.Is(err, os.ErrNotExist) {
		if _, err := os.Stat("config/config.toml"); errors.Is(err, os.ErrNotExist) {
			return nil, err
		} else {
			configFilePath = "config/config.toml"
		}
	}

	return LoadFile(configFilePath)
}

// LoadFile loads defaults then the given toml file on top of them
func LoadFile(configFilePath string) (*Config, error) {
	cfg := GetDefault()
	_, err := snakelet.InitAndLoad(cfg, configFilePath)

	if err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets the token live outside of the config file
func (cfg *Config) applyEnv() {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.Github.Token = token
	}
}

// GetDefault
func GetDefault() *Config {
	return &Config{
		API: APIConfig{
			ListenPort: "5000",
		},
		Tasks: TasksConfig{
			MaxParallelTasksAllowed: 8,
		},
		Logs: LogsConfig{
			Level:            "debug",
			OutputLogsAsJSON: false,
		},
		Stats: StatsConfig{
			Unit:   "bytes",
			Limit:  10,
			Source: "rest",
		},
		Output: OutputConfig{
			SVGPath:     "languages-chart.svg",
			MarkerStart: "<!-- LANGUAGES:START -->",
			MarkerEnd:   "<!-- LANGUAGES:END -->",
			ChartTitle:  "Most used languages",
		},
		Projects: ProjectsConfig{
			MarkerStart: "<!-- PROJECTS:START -->",
			MarkerEnd:   "<!-- PROJECTS:END -->",
			MaxLatest:   8,
			MaxRecent:   10,
			MaxPopular:  10,
			MaxMore:     20,
		},
	}
}
