package config_parser

import (
	"context"
	"strings"

	"github.com/ejoffe/gitun/config"
	"github.com/ejoffe/gitun/git"
	"github.com/rs/zerolog/log"
)

type remoteHeadSource struct {
	executor git.Executor
	config   *config.Config
}

// NewRemoteHeadSource uses the default branch of the remote as the primary
// branch. Clones made before setup pushed anything have no remote HEAD and
// keep the default.
func NewRemoteHeadSource(config *config.Config, executor git.Executor) *remoteHeadSource {
	return &remoteHeadSource{
		executor: executor,
		config:   config,
	}
}

func (s *remoteHeadSource) Load(_ interface{}) {
	cmd, err := git.NewBuilder(s.config).RemoteHead()
	if err != nil {
		log.Debug().Err(err).Msg("remote head")
		return
	}
	output, err := s.executor.ExecuteCapturingText(context.Background(), cmd)
	if err != nil {
		log.Debug().Err(err).Msg("remote has no default branch")
		return
	}
	branch, ok := parseRemoteHead(output, s.config.Repo.RemoteName)
	if !ok {
		log.Debug().Str("output", output).Msg("unable to parse remote head")
		return
	}
	if branch == s.config.Repo.LockingBranch {
		return
	}
	s.config.Repo.PrimaryBranch = branch
}

func parseRemoteHead(output string, remoteName string) (string, bool) {
	branch := strings.TrimPrefix(strings.TrimSpace(output), remoteName+"/")
	if branch == "" || branch == output || strings.ContainsAny(branch, " \t\n") {
		return "", false
	}
	return branch, true
}
