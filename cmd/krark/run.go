package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sznuper/krark/internal/config"
	"github.com/sznuper/krark/internal/dataset"
	"github.com/sznuper/krark/internal/harness"
	"github.com/sznuper/krark/internal/notify"
	"github.com/sznuper/krark/internal/recap"
	"github.com/sznuper/krark/internal/rules"
)

var runCmd = &cobra.Command{
	Use:   "run <dataset>",
	Short: "Validate the items of a dataset",
	Long: "Runs every check of the rules file against the dataset (all items, the items matching the rules filter, " +
		"or an evenly spaced --sample) and prints the recap. Exits 1 when any item failed or panicked. " +
		"Use --dry-run to skip sending notifications.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		logger := setupLogger()

		cfg, p, err := prepare(cmd, args[0], logger)
		if err != nil {
			return err
		}

		h := harness.New[dataset.Item](p.title, p.set, cfg.Options, logger)
		check := p.engine.Check

		var rc *recap.Recap
		switch {
		case p.engine.HasFilter():
			rc = h.RunFiltered(p.engine.Keep, check)
		case p.sampled:
			rc = h.RunSampled(p.sample, check)
		default:
			rc = h.Run(check)
		}

		notifyErr := notifyRun(cfg, p.title, rc, dryRun, logger)
		if notifyErr != nil {
			fmt.Fprintln(os.Stderr, notifyErr)
		}

		if !rc.OK() || notifyErr != nil {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	addSelectionFlags(runCmd)
	runCmd.Flags().String("name", "", "recap title (default: dataset file name)")
	runCmd.Flags().Bool("dry-run", false, "validate notification targets without sending")
	rootCmd.AddCommand(runCmd)
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("rules", "", "rules file with the filter and checks to apply")
	cmd.Flags().Int("sample", 0, "check at most N items spread evenly over the dataset")
}

// plan is what a run or items invocation operates on.
type plan struct {
	title   string
	set     *dataset.Set
	engine  *rules.Engine
	sample  int
	sampled bool
}

func prepare(cmd *cobra.Command, datasetPath string, logger *slog.Logger) (*config.Config, *plan, error) {
	cfg, used, err := config.Resolve(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if err := applyOptionFlags(cmd, cfg); err != nil {
		return nil, nil, err
	}
	logger.Debug("config resolved", "file", used, "options", cfg.Options)

	set, err := dataset.Load(datasetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", datasetPath, err)
	}

	var engine *rules.Engine
	if rulesPath, _ := cmd.Flags().GetString("rules"); rulesPath != "" {
		if engine, err = rules.Load(rulesPath, logger); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", rulesPath, err)
		}
	} else {
		logger.Warn("no rules file given, every item passes vacuously")
		if engine, err = rules.Compile(&rules.File{}, ".", logger); err != nil {
			return nil, nil, err
		}
	}

	p := &plan{set: set, engine: engine, title: datasetTitle(datasetPath)}
	if name, _ := cmd.Flags().GetString("name"); name != "" {
		p.title = name
	}
	if cmd.Flags().Changed("sample") {
		p.sample, _ = cmd.Flags().GetInt("sample")
		p.sampled = true
	}
	if p.sampled && engine.HasFilter() {
		return nil, nil, errors.New("--sample cannot be combined with a rules filter")
	}
	return cfg, p, nil
}

func datasetTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func notifyRun(cfg *config.Config, title string, rc *recap.Recap, dryRun bool, logger *slog.Logger) error {
	targets, err := notify.ResolveTargets(cfg.Notify, notify.BuildMessageData(title, rc))
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	var errs []error
	for _, t := range targets {
		if dryRun {
			if err := notify.Validate(t); err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Printf("Would notify %s: %q\n", t.Service(), t.Message)
			continue
		}

		logger.Info("sending notification", "service", t.Service())
		if err := notify.Send(t); err != nil {
			logger.Error("notify failed", "service", t.Service(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
