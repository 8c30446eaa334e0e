package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"dqpipe/internal/config"
	"dqpipe/internal/ingest"
	"dqpipe/internal/probe"
	"dqpipe/internal/standardize"
)

// probeCommand loads a dataset and prints the standardized schema without
// writing any artifacts.
func probeCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "print standardized column names and inferred types for a dataset",
		ArgsUsage: "<path-or-url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "auto", Usage: "auto, csv, tsv or xlsx"},
			&cli.StringFlag{Name: "delimiter", Usage: "field delimiter; auto-detected when empty"},
			&cli.StringFlag{Name: "datepref", Value: "auto", Usage: "date layout preference tie-breaker: auto|eu|us"},
			&cli.BoolFlag{Name: "json", Usage: "print the standardization report as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			loc := cmd.Args().First()
			if loc == "" {
				return fmt.Errorf("probe: dataset path or URL is required")
			}
			src := config.DatasetSource{
				Type:     ingest.TypeFile,
				Location: loc,
				Format:   cmd.String("format"),
				Options:  config.Options{},
			}
			if isURL(loc) {
				src.Type = ingest.TypeURL
			}
			if d := cmd.String("delimiter"); d != "" {
				src.Options["delimiter"] = d
			}
			return runProbe(ctx, stdout, src, probe.Preference(cmd.String("datepref")), cmd.Bool("json"))
		},
	}
}

func runProbe(ctx context.Context, w io.Writer, src config.DatasetSource, pref probe.Preference, asJSON bool) error {
	t, _, err := ingest.Load(ctx, src)
	if err != nil {
		return err
	}
	defaults := config.Pipeline{}.WithDefaults().Standardize
	_, _, rep, err := standardize.Standardize(t, standardize.Options{
		FoldAccents: true,
		Preference:  pref,
		SampleSize:  defaults.SampleSize,
		Seed:        defaults.Seed,
	})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	original := make(map[string]string, rep.SchemaMap.Len())
	for _, m := range rep.SchemaMap.Entries() {
		original[m.Standardized] = m.Original
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "column\tkind\toriginal")
	for _, k := range rep.Kinds {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k.Column, k.Kind, original[k.Column])
	}
	return tw.Flush()
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
