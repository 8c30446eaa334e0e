package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"dqpipe/internal/config"
	"dqpipe/internal/pipeline"

	// register all backends with the storage factory.
	_ "dqpipe/internal/storage/all"
)

// main is the entry point for the dqpipe binary. It loads .env (if any),
// then dispatches to the run or validate command.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("env: %v", err)
	}

	if err := newApp(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		fatalf("%v", err)
	}
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "pipeline config path (YAML, or JSON by extension)",
		Value:   "configs/pipelines/sample.yaml",
		Sources: cli.EnvVars("DQPIPE_CONFIG"),
	}
	verboseFlag := &cli.BoolFlag{
		Name:    "v",
		Aliases: []string{"verbose"},
		Usage:   "enable verbose logs",
	}

	return &cli.Command{
		Name:      "dqpipe",
		Usage:     "standardize, clean, scope and summarize a tabular dataset",
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the pipeline end to end",
				Flags: []cli.Flag{
					configFlag,
					verboseFlag,
					&cli.StringFlag{
						Name:    "metrics-backend",
						Usage:   "metrics backend (none, pushgateway, datadog); overrides the config",
						Sources: cli.EnvVars("METRICS_BACKEND"),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "artifact base directory; overrides output.dir",
					},
					&cli.BoolFlag{
						Name:  "no-llm",
						Usage: "skip the cleaning advisor",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runAction(ctx, cmd, stderr)
				},
			},
			{
				Name:  "validate",
				Usage: "validate the configuration and exit",
				Flags: []cli.Flag{configFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, err := loadPipeline(cmd.String("config"), stderr)
					if err != nil {
						return err
					}
					log.Printf("Configuration is valid: %v", cmd.String("config"))
					return nil
				},
			},
			probeCommand(stdout),
		},
	}
}

// loadPipeline decodes, defaults and validates the pipeline file, printing
// every issue. It fails when any issue is an error.
func loadPipeline(path string, stderr io.Writer) (config.Pipeline, error) {
	p, err := config.Load(path)
	if err != nil {
		return config.Pipeline{}, err
	}
	p = p.WithDefaults()

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return config.Pipeline{}, fmt.Errorf("configuration is invalid: %v", path)
	}
	return p, nil
}

func runAction(ctx context.Context, cmd *cli.Command, stderr io.Writer) error {
	verbose := cmd.Bool("v")
	cfgPath := cmd.String("config")

	p, err := loadPipeline(cfgPath, stderr)
	if err != nil {
		return err
	}
	if b := cmd.String("metrics-backend"); b != "" {
		p.Metrics.Backend = b
	}
	if o := cmd.String("output"); o != "" {
		p.Output.Dir = o
	}
	if cmd.Bool("no-llm") {
		p.LLM.Disabled = true
	}

	flush := setupMetrics(p, verbose)
	defer flush()

	if verbose {
		log.Printf("pipeline: job=%s source=%s:%s format=%s filters=%d storage=%q",
			p.Job, p.DatasetSource.Type, p.DatasetSource.Location, p.DatasetSource.Format,
			len(p.Scope.Filters), p.Storage.Kind)
	}

	start := time.Now()
	res, err := pipeline.Run(ctx, p, pipeline.Options{
		ConfigPath: cfgPath,
		Advisor:    newAdvisor(p.LLM, verbose),
	})
	if err != nil {
		return err
	}

	log.Printf("run %s: %d rows in, %d rows after scope; artifacts in %s",
		res.RunID, res.Ingest.Rows, res.Transform.RowsAfter, res.Dir)
	if verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
