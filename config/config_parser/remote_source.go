package config_parser

import (
	"context"
	"regexp"

	"github.com/ejoffe/gitun/config"
	"github.com/ejoffe/gitun/git"
	"github.com/rs/zerolog/log"
)

type remoteURLSource struct {
	executor git.Executor
	config   *config.Config
}

// NewRemoteURLSource fills RemoteURL from the push url of the configured
// remote, when the repository already has one.
func NewRemoteURLSource(config *config.Config, executor git.Executor) *remoteURLSource {
	return &remoteURLSource{
		executor: executor,
		config:   config,
	}
}

func (s *remoteURLSource) Load(_ interface{}) {
	builder := git.NewBuilder(s.config)
	lines, err := s.executor.ExecuteCapturingLines(context.Background(), builder.RemoteList())
	if err != nil {
		log.Debug().Err(err).Msg("no remotes to configure from")
		return
	}
	for _, line := range lines {
		url, match := getRemoteURL(line, s.config.Repo.RemoteName)
		if match {
			s.config.Repo.RemoteURL = url
			break
		}
	}
}

var _remoteLineRegex = regexp.MustCompile(`^(?P<name>\S+)\s+(?P<url>\S+) \(push\)$`)

// getRemoteURL returns the url of a 'git remote -v' push line for remoteName.
func getRemoteURL(line string, remoteName string) (string, bool) {
	matches := _remoteLineRegex.FindStringSubmatch(line)
	if matches == nil {
		return "", false
	}
	if matches[_remoteLineRegex.SubexpIndex("name")] != remoteName {
		return "", false
	}
	return matches[_remoteLineRegex.SubexpIndex("url")], true
}
