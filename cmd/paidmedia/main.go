package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Molly503/paid-media/internal/config"
	"github.com/Molly503/paid-media/internal/dataset"
	"github.com/Molly503/paid-media/internal/usecases/cleaning"
	"github.com/Molly503/paid-media/internal/usecases/enriching"
	"github.com/Molly503/paid-media/internal/usecases/reconciling"
	"github.com/Molly503/paid-media/internal/usecases/reporting"
)

const usage = `usage: paidmedia <command> [flags]

commands:
  enrich     compute derived metrics and validate the funnel of a raw table
  clean      drop rows with out-of-range metrics from an enriched table
  reconcile  regenerate conversion and revenue figures so every ratio is consistent
`

func main() {
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("invalid log level %q, using info", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "enrich":
		err = runEnrich(cfg, args)
	case "clean":
		err = runClean(cfg, args)
	case "reconcile":
		err = runReconcile(cfg, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logrus.Fatal(errors.Wrap(err, command+" failed"))
	}
}

func runEnrich(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	input := fs.String("input", "", "raw campaign CSV")
	output := fs.String("output", "", "enriched CSV to write")
	if err := parsePaths(fs, args, input, output); err != nil {
		return err
	}

	service := enriching.NewService(
		dataset.NewCSVSource(*input, dataset.SchemaRaw),
		dataset.NewCSVSink(*output),
		cfg.Enrich.AverageOrderValue,
		cfg.Enrich.MinRows,
	)

	report, err := service.Run()
	if err != nil {
		return err
	}

	report.Render(os.Stdout)
	return nil
}

func runClean(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	input := fs.String("input", "", "enriched campaign CSV")
	output := fs.String("output", "", "cleaned CSV to write")
	if err := parsePaths(fs, args, input, output); err != nil {
		return err
	}

	service := cleaning.NewService(
		dataset.NewCSVSource(*input, dataset.SchemaEnriched),
		dataset.NewCSVSink(*output),
		cleaning.BoundsFromConfig(cfg),
		cfg.Cleaning.MinRows,
		cfg.Cleaning.LogPath,
	)

	result, err := service.Run()
	if err != nil {
		return err
	}

	fmt.Printf("cleaned %d -> %d rows (%.1f%% removed)\n",
		result.OriginalCount, result.FinalCount, result.RemovalRate)
	return nil
}

func runReconcile(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	input := fs.String("input", "", "cleaned campaign CSV")
	output := fs.String("output", "", "reconciled CSV to write")
	if err := parsePaths(fs, args, input, output); err != nil {
		return err
	}

	reporter := reporting.NewReporter(reporting.ThresholdsFromConfig(cfg))

	service := reconciling.NewService(
		dataset.NewCSVSource(*input, dataset.SchemaEnriched),
		dataset.NewCSVSink(*output),
		reconciling.NewSynthesizer(reconciling.NewRateTable(), reconciling.SettingsFromConfig(cfg)),
		reporter,
		cfg.Reconcile.Seed,
	)

	summary, err := service.Run()
	if err != nil {
		return err
	}

	reporter.Render(os.Stdout, summary)

	if cfg.Report.JSONPath != "" {
		if err := reporter.WriteJSON(cfg.Report.JSONPath, summary); err != nil {
			return err
		}
	}
	return nil
}

func parsePaths(fs *flag.FlagSet, args []string, input, output *string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || *output == "" {
		return errors.New("both -input and -output are required")
	}
	return nil
}

func configureLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetOutput(os.Stderr)
}
