package config_parser

import (
	"os"
	"path"
	"path/filepath"

	"github.com/ejoffe/gitun/config"
	"github.com/ejoffe/gitun/git"
	"github.com/ejoffe/rake"
)

// ParseConfig layers the built in defaults, what the remote tells us and the
// yaml files. The repository file is written back so a fresh checkout gets
// a complete .gitun.yml to edit.
func ParseConfig(executor git.Executor) *config.Config {
	cfg := config.EmptyConfig()

	rake.LoadSources(cfg.Repo,
		rake.DefaultSource(),
		NewRemoteHeadSource(cfg, executor),
		NewRemoteURLSource(cfg, executor),
		rake.YamlFileSource(RepoConfigFilePath(executor)),
		rake.YamlFileWriter(RepoConfigFilePath(executor)),
	)

	rake.LoadSources(cfg.User,
		rake.DefaultSource(),
		rake.YamlFileSource(UserConfigFilePath()),
	)

	rake.LoadSources(cfg.Internal,
		rake.DefaultSource(),
		rake.YamlFileSource(InternalConfigFilePath()),
	)

	rake.LoadSources(cfg.User,
		rake.YamlFileWriter(UserConfigFilePath()))

	cfg.Internal.RunCount = cfg.Internal.RunCount + 1

	rake.LoadSources(cfg.Internal,
		rake.YamlFileWriter(InternalConfigFilePath()))

	return cfg
}

func RepoConfigFilePath(executor git.Executor) string {
	rootdir := executor.RootDir()
	filepath := filepath.Clean(path.Join(rootdir, ".gitun.yml"))
	return filepath
}

func UserConfigFilePath() string {
	rootdir, err := os.UserHomeDir()
	check(err)
	filepath := filepath.Clean(path.Join(rootdir, ".gitun.yml"))
	return filepath
}

func InternalConfigFilePath() string {
	rootdir, err := os.UserHomeDir()
	check(err)
	filepath := filepath.Clean(path.Join(rootdir, ".gitun.state"))
	return filepath
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
