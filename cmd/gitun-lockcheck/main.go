package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ejoffe/gitun/config"
	"github.com/ejoffe/gitun/config/config_parser"
	"github.com/ejoffe/gitun/git/realgit"
	"github.com/ejoffe/gitun/hook"
	flags "github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	version = "dev"
	commit  = "dversion"
	date    = "unknown"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.With().Caller().Logger().Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// command line opts
type opts struct {
	Debug   bool `short:"d" long:"debug" description:"Show runtime debug info."`
	Version bool `short:"v" long:"version" description:"Show version info."`
}

// Runs as the pre-commit hook, exits non zero when a staged file is locked
// by someone else.
func main() {
	var opts opts
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	_, err := parser.Parse()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("gitun-lockcheck version : %s : %s : %s\n", version, date, commit[:8])
		os.Exit(0)
	}
	if opts.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	wd, err := os.Getwd()
	check(err)
	gitcmd := realgit.NewGitCmd(config.DefaultConfig(), wd)
	cfg := config_parser.ParseConfig(gitcmd)
	gitcmd = realgit.NewGitCmd(cfg, wd)

	locked, err := hook.LockedStagedFiles(context.Background(), cfg, gitcmd)
	check(err)
	if len(locked) == 0 {
		return
	}

	fmt.Fprintf(os.Stderr, "commit refused, staged files are locked on %s:\n", cfg.Repo.LockingBranch)
	for _, l := range locked {
		fmt.Fprintf(os.Stderr, "  %s (locked by %s)\n", l.Path, l.Owner)
	}
	os.Exit(1)
}

func check(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
