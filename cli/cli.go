package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/bibdb/cli/cmd"
	"github.com/ardnew/bibdb/pkg"
)

// CLI is the top-level command-line interface for bibdb.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	BibInputs []string `help:"Directory searched for source files, before those listed in ${bibinputsEnv}." name:"bibinputs" placeholder:"DIR" short:"B" type:"path"`

	Check  cmd.Check  `cmd:"" help:"Report diagnostics and entries missing required fields."`
	Fmt    cmd.Fmt    `cmd:"" help:"Format sources as BibTeX, JSON or YAML."`
	Get    cmd.Get    `cmd:"" help:"Print one resolved entry."`
	Browse cmd.Browse `cmd:"" help:"Interactively search entries."`
	Export cmd.Export `cmd:"" help:"Store resolved entries in a SQLite database."`
	Lookup cmd.Lookup `cmd:"" help:"Print stored entries or the import history."`

	Init    cmd.Init    `cmd:"" help:"Initialize configuration file"`
	Version cmd.Version `cmd:"" help:"Print the version."`
}

// Run executes the bibdb CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig + ".yaml")

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cachePath(),
		"bibinputsEnv":       pkg.SearchPathEnv,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSearchPath(ctx, pkg.SearchPath(cli.BibInputs...))

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run()
}
