package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"personnel/internal/platform/config"
	dErrors "personnel/pkg/domain-errors"
)

const usageText = `Usage: personnel [flags] MODE [ARGS...]

Modes:
  1  create the employees table
  2  add one employee: personnel 2 "Ivanov Petr Sergeevich" 2009-07-12 Male
  3  print unique employees by full name and date of birth
  4  generate and insert the synthetic corpus
  5  run the timed query (gender Male, name starting with F)
  6  create indexes, vacuum analyze, and rerun the timed query`

const addExample = `Usage: personnel 2 "Full Name" YYYY-MM-DD Gender
Example: personnel 2 "Ivanov Petr Sergeevich" 2009-07-12 Male`

// environment is everything the command takes from the process.
type environment struct {
	stdout  io.Writer
	stderr  io.Writer
	getenv  func(string) string
	connect connector
	now     func() time.Time
}

type flagValues struct {
	configPath  string
	total       int
	specific    int
	batchSize   int
	limit       int
	writeMethod string
	seed        uint64
}

func newRootCmd(env environment) *cobra.Command {
	var flags flagValues
	cmd := &cobra.Command{
		Use:           "personnel [flags] MODE [ARGS...]",
		Short:         "Load, deduplicate, query and index-tune the employees table",
		Long:          usageText,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := parseInvocation(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, env, flags)
			if err != nil {
				return err
			}
			return runMode(cmd.Context(), env, cfg, inv)
		},
	}
	cmd.SetOut(env.stdout)
	cmd.SetErr(env.stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return dErrors.New(dErrors.CodeUsage, err.Error()+"\n\n"+usageText)
	})

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "path to a YAML config file (default $PERSONNEL_CONFIG)")
	f.IntVar(&flags.total, "total", 0, "records to generate in mode 4")
	f.IntVar(&flags.specific, "specific", 0, "needle records (Male, surname starting with F) among --total")
	f.IntVar(&flags.batchSize, "batch-size", 0, "records per insert transaction in mode 4")
	f.IntVar(&flags.limit, "limit", 0, "maximum records printed by mode 3")
	f.StringVar(&flags.writeMethod, "write-method", "", "batch write path: insert or copy")
	f.Uint64Var(&flags.seed, "seed", 0, "generator seed; 0 picks a random one")
	return cmd
}

// loadConfig layers environment, file and explicitly set flags.
func loadConfig(cmd *cobra.Command, env environment, flags flagValues) (config.Config, error) {
	path := flags.configPath
	if path == "" {
		path = env.getenv("PERSONNEL_CONFIG")
	}
	cfg := config.Default()
	config.ApplyEnv(&cfg, env.getenv)
	if path != "" {
		fileCfg, err := config.LoadFile(path, cfg)
		if err != nil {
			return config.Config{}, dErrors.Wrap(err, dErrors.CodeValidation, "invalid configuration")
		}
		cfg = fileCfg
	}

	changed := cmd.Flags().Changed
	if changed("total") {
		cfg.Generate.Total = flags.total
	}
	if changed("specific") {
		cfg.Generate.Specific = flags.specific
	}
	if changed("batch-size") {
		cfg.Generate.BatchSize = flags.batchSize
	}
	if changed("limit") {
		cfg.Dedupe.Limit = flags.limit
	}
	if changed("write-method") {
		cfg.Generate.WriteMethod = flags.writeMethod
	}
	if changed("seed") {
		cfg.Generate.Seed = flags.seed
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, dErrors.Wrap(err, dErrors.CodeValidation, "invalid configuration")
	}
	return cfg, nil
}

// invocation is a parsed MODE [ARGS...].
type invocation struct {
	mode int
	args []string
}

func parseInvocation(args []string) (invocation, error) {
	if len(args) == 0 {
		return invocation{}, dErrors.New(dErrors.CodeUsage, usageText)
	}
	mode, err := strconv.Atoi(args[0])
	if err != nil || mode < 1 || mode > 6 {
		return invocation{}, dErrors.New(dErrors.CodeUsage, usageText)
	}
	inv := invocation{mode: mode, args: args[1:]}
	if mode == 2 && len(inv.args) != 3 {
		return invocation{}, dErrors.New(dErrors.CodeUsage, addExample)
	}
	return inv, nil
}

// execute runs the command and maps its error to an exit code. Usage and
// validation problems are reported on stdout and exit cleanly; anything
// else is an operational failure.
func execute(ctx context.Context, args []string, env environment) int {
	cmd := newRootCmd(env)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var de *dErrors.Error
	switch dErrors.CodeOf(err) {
	case dErrors.CodeUsage:
		if errors.As(err, &de) {
			fmt.Fprintln(env.stdout, de.Message)
		}
		return 0
	case dErrors.CodeValidation:
		fmt.Fprintln(env.stdout, err.Error())
		return 0
	default:
		fmt.Fprintf(env.stderr, "Error: %v\n", err)
		return 1
	}
}
