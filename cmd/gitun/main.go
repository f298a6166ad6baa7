package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ejoffe/gitun/auditlog"
	"github.com/ejoffe/gitun/config"
	"github.com/ejoffe/gitun/config/config_parser"
	"github.com/ejoffe/gitun/git"
	"github.com/ejoffe/gitun/git/realgit"
	"github.com/ejoffe/gitun/gitun"
	"github.com/ejoffe/gitun/hook"
	"github.com/ejoffe/gitun/locking"
	"github.com/ejoffe/gitun/pretty"
	"github.com/ejoffe/gitun/terminal"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
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

func main() {
	wd, err := os.Getwd()
	check(err)

	gitcmd := realgit.NewGitCmd(config.DefaultConfig(), wd)
	cfg := config_parser.ParseConfig(gitcmd)
	gitcmd = realgit.NewGitCmd(cfg, wd)

	recorder := auditlog.NewFileRecorder(filepath.Join(gitcmd.RootDir(), cfg.Repo.LogFile))
	defer recorder.Close()

	g := gitun.NewGitun(cfg, gitcmd, recorder)
	g.SetOutput(os.Stdout)
	ctx := context.Background()

	app := &cli.App{
		Name:                 "gitun",
		Usage:                "Lock binary assets and merge branches without merging them",
		Version:              fmt.Sprintf("%s : %s : %s", version, date, commit[:8]),
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Show runtime debug info",
			},
		},
		Before: func(c *cli.Context) error {
			if c.IsSet("debug") || cfg.User.Debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				g.EnableDebug()
				log.Debug().Msg("config: " + pretty.String(cfg))
			}
			if c.Args().First() == "setup" {
				// setup fills in what validation checks
				return nil
			}
			return cfg.Validate()
		},
		After: func(c *cli.Context) error {
			g.DebugPrintSummary()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "setup",
				Usage: "Initialize the repository, the locking branch and the remote",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "remote",
						Usage: "URL of the remote to push to, stored in .gitun.yml",
						Value: cfg.Repo.RemoteURL,
					},
					&cli.BoolFlag{
						Name:  "no-hook",
						Usage: "Don't install the pre-commit lock check",
					},
				},
				Action: func(c *cli.Context) error {
					cfg.Repo.RemoteURL = c.String("remote")
					err := cfg.Validate()
					if err != nil {
						return err
					}
					err = g.RunSetup(ctx)
					if err != nil {
						return err
					}
					if c.Bool("no-hook") {
						return nil
					}
					err = hook.InstallPreCommitHook(gitcmd.RootDir(), os.Stdout)
					if err != nil {
						log.Warn().Err(err).Msg("pre-commit lock check not installed, run 'gitun install-hook' later")
					}
					return nil
				},
			},
			{
				Name:      "merge",
				Usage:     "Save the assets changed on <source> and merge it into <target>, source defaults to the current branch",
				ArgsUsage: "<target> [source]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the merge report as json",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 || c.NArg() > 2 {
						return cli.Exit("merge needs a target branch and optionally a source branch", 1)
					}
					source := c.Args().Get(1)
					var err error
					if source == "" {
						source, err = git.GetLocalBranchName(ctx, gitcmd, git.NewBuilder(cfg))
						if err != nil {
							return err
						}
					}
					report, err := g.RunMain(ctx, c.Args().Get(0), source)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return pretty.Write(os.Stdout, report.Objects)
					}
					width := terminal.WidthOrDefault()
					for _, obj := range report.Objects {
						fmt.Println(terminal.Truncate(fmt.Sprintf("%-9s %s", obj.Status, obj.Path), width))
					}
					return nil
				},
			},
			{
				Name:      "lock",
				Usage:     "Lock files so nobody else commits them",
				ArgsUsage: "<path>...",
				Action: func(c *cli.Context) error {
					return eachPath(c, func(path string) error {
						_, err := g.LockFile(ctx, path)
						if err == nil {
							fmt.Printf("locked %s\n", path)
						}
						return err
					})
				},
			},
			{
				Name:      "unlock",
				Usage:     "Release locks you hold",
				ArgsUsage: "<path>...",
				Action: func(c *cli.Context) error {
					return eachPath(c, func(path string) error {
						_, err := g.UnlockFile(ctx, path)
						if err == nil {
							fmt.Printf("unlocked %s\n", path)
						}
						return err
					})
				},
			},
			{
				Name:  "status",
				Usage: "List the locks on the locking branch",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the lock registry as json",
					},
				},
				Action: func(c *cli.Context) error {
					registry, err := g.LockStatus(ctx)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return pretty.Write(os.Stdout, registry.Locks)
					}
					printLocks(registry.Locks)
					return nil
				},
			},
			{
				Name:  "branches",
				Usage: "List local branches",
				Action: func(c *cli.Context) error {
					branches, err := g.FetchBranchList(ctx)
					if err != nil {
						return err
					}
					fmt.Println(strings.Join(branches, "\n"))
					return nil
				},
			},
			{
				Name:  "install-hook",
				Usage: "Install the pre-commit hook refusing commits of files locked by others",
				Action: func(c *cli.Context) error {
					return hook.InstallPreCommitHook(gitcmd.RootDir(), os.Stdout)
				},
			},
		},
	}

	err = app.Run(os.Args)
	if err != nil {
		fmt.Println(err)
		recorder.Close()
		os.Exit(1)
	}
}

func eachPath(c *cli.Context, fn func(path string) error) error {
	if c.NArg() == 0 {
		return cli.Exit(fmt.Sprintf("%s needs at least one path", c.Command.Name), 1)
	}
	for _, path := range c.Args().Slice() {
		err := fn(path)
		if err != nil {
			return err
		}
	}
	return nil
}

func printLocks(locks []locking.Lock) {
	if len(locks) == 0 {
		fmt.Println("no files are locked")
		return
	}
	width := terminal.WidthOrDefault()
	for _, l := range locks {
		line := fmt.Sprintf("%-16s %s  %s", l.Owner, l.LockedAt.Local().Format(time.DateTime), l.Path)
		fmt.Println(terminal.Truncate(line, width))
	}
}

func check(err error) {
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
