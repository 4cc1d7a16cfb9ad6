package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xraph/cohesion"
	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/config/formats"
	"github.com/xraph/cohesion/internal/di"
	"github.com/xraph/cohesion/internal/environment"
	"github.com/xraph/cohesion/internal/logger"
	"github.com/xraph/cohesion/internal/typeinfo"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

type globalFlags struct {
	dir     string
	env     string
	noColor bool
	verbose bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "cohesion",
		Short:         "Inspect and verify cohesion configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if flags.noColor || os.Getenv("NO_COLOR") != "" {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().StringVarP(&flags.dir, "dir", "d", "", "configuration directory holding default-conf and <env>-conf files")
	root.PersistentFlags().StringVarP(&flags.env, "env", "e", "", "environment name (defaults to $COHESION_ENV or $APPLICATION_ENV)")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log configuration loading")

	root.AddCommand(
		newConfigCommand(flags),
		newTypesCommand(),
		newCheckCommand(flags),
		newVersionCommand(),
	)
	return root
}

func loadEnvironment(flags *globalFlags) (*environment.Environment, error) {
	l := logger.NewNoopLogger()
	if flags.verbose {
		l = logger.NewDevelopmentLogger()
	}

	opts := []environment.Option{environment.WithLogger(l)}
	if flags.dir != "" {
		opts = append(opts, environment.WithDir(flags.dir))
	}
	if flags.env != "" {
		opts = append(opts, environment.WithName(flags.env))
	}
	return environment.NewCLI(opts...)
}

func builtinRegistry() (*typeinfo.Registry, error) {
	reg := cohesion.NewRegistry()
	if err := cohesion.RegisterBuiltins(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func newConfigCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config [section]",
		Short: "Print the merged configuration, or one section of it, as YAML",
		Example: `  cohesion config --dir config
  cohesion config data_access --dir config --env production`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(flags)
			if err != nil {
				return err
			}

			var section *config.Config
			if len(args) == 1 {
				section = env.GetConfig(args[0])
			} else {
				section = env.Config()
			}

			out, err := formats.NewYAMLProcessor().Marshal(section.AllSettings())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the built-in registered types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := builtinRegistry()
			if err != nil {
				return err
			}
			printTypes(cmd.OutOrStdout(), reg)
			return nil
		},
	}
}

func printTypes(w io.Writer, reg *typeinfo.Registry) {
	for _, name := range reg.Names() {
		desc, _ := reg.Lookup(name)

		kind := reg.KindOf(name).String()
		if desc.Abstract {
			kind += ", abstract"
		}

		var params []string
		if desc.Ctor != nil {
			for _, p := range desc.Ctor.Params {
				param := p.Name
				if p.Optional {
					param += "?"
				}
				params = append(params, param)
			}
		}

		fmt.Fprintf(w, "%-24s %s", bold(name), gray("("+kind+")"))
		if len(params) > 0 {
			fmt.Fprintf(w, " %s", strings.Join(params, ", "))
		}
		fmt.Fprintln(w)
	}
}

type checkResult struct {
	section string
	target  string
	err     error
}

func newCheckCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Build every configured built-in slot driver and utility",
		Long: `Check builds the driver of every data_access section that names a registered
slot and every utility section that names a registered utility, and reports
the configuration errors found. Clients are built but not connected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment(flags)
			if err != nil {
				return err
			}
			reg, err := builtinRegistry()
			if err != nil {
				return err
			}
			c, err := env.Container(reg)
			if err != nil {
				return err
			}

			results := runChecks(cmd.Context(), c.Resolver())
			return report(cmd.OutOrStdout(), results, env)
		},
	}
}

func runChecks(ctx context.Context, s *di.ServiceResolver) []checkResult {
	if ctx == nil {
		ctx = context.Background()
	}
	reg := s.Registry()
	var results []checkResult

	if section := s.Config().GetConfig("data_access"); section != nil {
		for _, key := range section.Keys() {
			slot, ok := findSlot(reg, key)
			if !ok {
				continue
			}
			_, err := s.DataAccess().ResolveSlot(ctx, slot)
			results = append(results, checkResult{section: "data_access." + key, target: slot, err: err})
		}
	}

	if section := s.Config().GetConfig("utility"); section != nil {
		for _, key := range utilityKeys(section) {
			name, ok := findUtility(reg, key)
			if !ok {
				continue
			}
			_, err := s.Utility().Resolve(ctx, name)
			results = append(results, checkResult{section: "utility." + key, target: name, err: err})
		}
	}

	return results
}

// utilityKeys lists the top-level keys of the utility section, and for
// sections keyed by a namespace, the dotted keys one level down.
func utilityKeys(section *config.Config) []string {
	var keys []string
	for _, key := range section.Keys() {
		keys = append(keys, key)
		if child := section.Child(key); child != nil {
			if _, hasDriver := child.Driver(); !hasDriver {
				for _, sub := range child.Keys() {
					if child.Child(sub) != nil {
						keys = append(keys, key+"."+sub)
					}
				}
			}
		}
	}
	return keys
}

// findSlot finds the persistence slot a data_access key configures.
func findSlot(reg *typeinfo.Registry, key string) (string, bool) {
	for _, name := range reg.Names() {
		desc, _ := reg.Lookup(name)
		if !desc.Abstract || reg.KindOf(name) != typeinfo.KindPlain {
			continue
		}
		if strings.EqualFold(typeinfo.ShortName(name), key) {
			return name, true
		}
	}
	return "", false
}

// findUtility finds the utility a utility key configures, matching the full
// name first and the short name second.
func findUtility(reg *typeinfo.Registry, key string) (string, bool) {
	if reg.KindOf(key) == typeinfo.KindUtility {
		return key, true
	}
	var matches []string
	for _, name := range reg.Names() {
		if reg.KindOf(name) == typeinfo.KindUtility && strings.EqualFold(typeinfo.ShortName(name), key) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

func report(w io.Writer, results []checkResult, env *environment.Environment) error {
	if len(results) == 0 {
		fmt.Fprintln(w, yellow("nothing to check: no configured built-in slots or utilities"))
		return nil
	}

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(w, "%s %s %s\n    %s\n", red("✗"), r.section, gray("("+r.target+")"), r.err)
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", green("✓"), r.section, gray("("+r.target+")"))
	}

	if collector := env.Metrics(); collector != nil {
		if summaries, err := collector.Summaries(); err == nil {
			for _, s := range summaries {
				fmt.Fprintf(w, "%s %s: %d constructed, %d failed\n", gray("·"), s.Resolver, s.Constructions, s.Failures)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	fmt.Fprintln(w, green(fmt.Sprintf("all %d checks passed", len(results))))
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "cohesion "+version)
			fmt.Fprintln(w, "Commit: "+commit)
			fmt.Fprintln(w, "Built: "+buildDate)
		},
	}
}
