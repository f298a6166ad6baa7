package config

import (
	"fmt"
	"time"
)

// Config object to hold gitun configuration
type Config struct {
	Repo     *RepoConfig
	User     *UserConfig
	Internal *InternalConfig
}

// RepoConfig is stored in <repo root>/.gitun.yml and shared by everyone
// working on the repository.
type RepoConfig struct {
	PrimaryBranch string `default:"master" yaml:"primaryBranch"`
	LockingBranch string `default:"locking" yaml:"lockingBranch"`

	RemoteName string `default:"origin" yaml:"remoteName"`
	RemoteURL  string `yaml:"remoteURL"`

	AssetDir         string `default:"Assets/Scenes" yaml:"assetDir"`
	ArtifactsDir     string `default:"Assets/DiffPrefabs" yaml:"artifactsDir"`
	IgnoreFile       string `default:".gitignore" yaml:"ignoreFile"`
	LogFile          string `default:"gitun.log" yaml:"logFile"`
	LockRegistryFile string `default:"locks.yml" yaml:"lockRegistryFile"`
	DiffArtifactFile string `default:"diff.txt" yaml:"diffArtifactFile"`

	// IgnoreTemplate seeds the ignore file during setup.
	// When empty DefaultIgnoreTemplate is used.
	IgnoreTemplate []string `yaml:"ignoreTemplate,omitempty"`
}

// UserConfig is stored in ~/.gitun.yml
type UserConfig struct {
	LogGitCommands        bool `default:"false" yaml:"logGitCommands"`
	CommandTimeoutSeconds int  `default:"300" yaml:"commandTimeoutSeconds"`
	Debug                 bool `default:"false" yaml:"debug"`
}

// InternalConfig is state kept in ~/.gitun.state
type InternalConfig struct {
	RunCount int `default:"0" yaml:"runCount"`
}

// DefaultIgnoreTemplate is the ignore list for a fresh unity project.
var DefaultIgnoreTemplate = []string{
	"/[Ll]ibrary/",
	"/[Tt]emp/",
	"/[Oo]bj/",
	"/[Bb]uild/",
	"/[Bb]uilds/",
	"/[Ll]ogs/",
	"/[Uu]ser[Ss]ettings/",
	"/[Mm]emoryCaptures/",
	"*.csproj",
	"*.sln",
	"*.suo",
	"*.user",
	"*.pidb",
	"*.booproj",
	"*.apk",
	"*.unitypackage",
	"crashlytics-build.properties",
}

// EmptyConfig returns a config with all sections allocated and zero values.
func EmptyConfig() *Config {
	return &Config{
		Repo:     &RepoConfig{},
		User:     &UserConfig{},
		Internal: &InternalConfig{},
	}
}

// DefaultConfig returns the config used when no config files exist.
func DefaultConfig() *Config {
	return &Config{
		Repo: &RepoConfig{
			PrimaryBranch:    "master",
			LockingBranch:    "locking",
			RemoteName:       "origin",
			AssetDir:         "Assets/Scenes",
			ArtifactsDir:     "Assets/DiffPrefabs",
			IgnoreFile:       ".gitignore",
			LogFile:          "gitun.log",
			LockRegistryFile: "locks.yml",
			DiffArtifactFile: "diff.txt",
		},
		User: &UserConfig{
			CommandTimeoutSeconds: 300,
		},
		Internal: &InternalConfig{},
	}
}

// Ignore returns the configured ignore template or the default one.
func (c *Config) Ignore() []string {
	if len(c.Repo.IgnoreTemplate) > 0 {
		return c.Repo.IgnoreTemplate
	}
	return DefaultIgnoreTemplate
}

// CommandTimeout is the deadline applied to each process invocation.
func (c *Config) CommandTimeout() time.Duration {
	if c.User == nil || c.User.CommandTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.User.CommandTimeoutSeconds) * time.Second
}

// Validate checks the settings every protocol depends on.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"primaryBranch", c.Repo.PrimaryBranch},
		{"lockingBranch", c.Repo.LockingBranch},
		{"remoteName", c.Repo.RemoteName},
		{"assetDir", c.Repo.AssetDir},
		{"artifactsDir", c.Repo.ArtifactsDir},
		{"ignoreFile", c.Repo.IgnoreFile},
		{"lockRegistryFile", c.Repo.LockRegistryFile},
		{"diffArtifactFile", c.Repo.DiffArtifactFile},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("config: %s must be set in .gitun.yml", r.key)
		}
	}
	if c.Repo.PrimaryBranch == c.Repo.LockingBranch {
		return fmt.Errorf("config: lockingBranch must differ from primaryBranch (%s)", c.Repo.PrimaryBranch)
	}
	return nil
}
