package main

import (
	"fmt"
	"os"

	"github.com/ejoffe/gitun/config"
	"github.com/ejoffe/gitun/config/config_parser"
	"github.com/ejoffe/gitun/diff"
	"github.com/ejoffe/gitun/git/realgit"
	"github.com/ejoffe/gitun/pretty"
	"github.com/ejoffe/gitun/terminal"
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
	Debug   bool   `short:"d" long:"debug" description:"Show runtime debug info."`
	Target  string `short:"t" long:"target" description:"Branch the source would be merged into, defaults to the primary branch."`
	JSON    bool   `short:"j" long:"json" description:"Print the changed assets as json."`
	Version bool   `short:"v" long:"version" description:"Show version info."`

	Args struct {
		Source string `positional-arg-name:"source"`
	} `positional-args:"yes"`
}

func main() {
	var opts opts
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	_, err := parser.Parse()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("gitun-preview version : %s : %s : %s\n", version, date, commit[:8])
		os.Exit(0)
	}
	if opts.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if opts.Args.Source == "" {
		fmt.Println("the source branch is required")
		os.Exit(1)
	}

	wd, err := os.Getwd()
	check(err)
	gitcmd := realgit.NewGitCmd(config.DefaultConfig(), wd)
	cfg := config_parser.ParseConfig(gitcmd)

	target := opts.Target
	if target == "" {
		target = cfg.Repo.PrimaryBranch
	}
	log.Debug().Str("target", target).Str("source", opts.Args.Source).Msg("preview")

	objects, err := diff.Preview(gitcmd.RootDir(), target, opts.Args.Source, cfg.Repo.AssetDir)
	check(err)

	if opts.JSON {
		check(pretty.WriteColor(os.Stdout, objects))
		return
	}
	if len(objects) == 0 {
		fmt.Printf("no assets changed on %s since it left %s\n", opts.Args.Source, target)
		return
	}
	width := terminal.WidthOrDefault()
	for _, obj := range objects {
		line := fmt.Sprintf("%-9s +%-5d -%-5d %s", obj.Status, obj.Additions, obj.Deletions, obj.Path)
		if obj.Binary {
			line = fmt.Sprintf("%-9s binary       %s", obj.Status, obj.Path)
		}
		fmt.Println(terminal.Truncate(line, width))
	}
}

func check(err error) {
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
