package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agentic-research/pubsubconf/internal/config"
	"github.com/agentic-research/pubsubconf/internal/export"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/agentic-research/pubsubconf/internal/synth"
	"github.com/spf13/cobra"
)

type synthOptions struct {
	configPath     string
	snapshotPath   string
	rootNode       string
	concurrency    int
	mismatchPolicy string
	format         string
	selectPath     string
	logLevel       string
	outputPath     string
	strict         bool
}

func newSynthCmd() *cobra.Command {
	var o synthOptions
	c := &cobra.Command{
		Use:   "synth [snapshot]",
		Short: "Rebuild the PubSub configuration document from a capture",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config(cmd, args)
			if err != nil {
				return err
			}
			return runSynth(cmd, cfg, o.outputPath, o.strict)
		},
	}

	f := c.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "Path to a YAML or HCL config file")
	f.StringVarP(&o.snapshotPath, "snapshot", "s", "", "Captured node space (.db or .json)")
	f.StringVar(&o.rootNode, "root", "", "Node id to start from (default i=14443)")
	f.IntVar(&o.concurrency, "concurrency", 0, "Sibling entities resolved at once (1-64)")
	f.StringVar(&o.mismatchPolicy, "mismatch-policy", "", "Transport/profile mismatch handling: best-effort, warn or reject")
	f.StringVarP(&o.format, "format", "f", "", "Output format: json or yaml")
	f.StringVar(&o.selectPath, "select", "", "JSONPath applied to the document before writing")
	f.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVarP(&o.outputPath, "output", "o", "", "Write to this file instead of stdout")
	f.BoolVar(&o.strict, "strict", false, "Fail when any entity was dropped")
	return c
}

func runSynth(cmd *cobra.Command, cfg config.Config, outputPath string, strict bool) error {
	root, err := cfg.RootNode()
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	outFormat, err := export.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))

	space, closeSpace, err := openSpace(cfg.Snapshot)
	if err != nil {
		return err
	}
	defer func() { _ = closeSpace() }()

	s := synth.New(space,
		synth.WithLogger(logger),
		synth.WithConcurrency(cfg.Concurrency),
		synth.WithMismatchPolicy(policy),
	)
	doc, warnings, err := s.Synthesize(cmd.Context(), root)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	dropped := reportWarnings(logger, warnings)
	logger.Info("synthesized",
		"connections", len(doc.Connections),
		"published_data_sets", len(doc.PublishedDataSets),
		"warnings", len(warnings))

	var out any = doc
	if cfg.Select != "" {
		if out, err = export.Select(doc, cfg.Select); err != nil {
			return err
		}
	}
	if err := writeOutput(cmd.OutOrStdout(), outputPath, out, outFormat); err != nil {
		return err
	}

	if strict && dropped > 0 {
		return fmt.Errorf("%d entities dropped", dropped)
	}
	return nil
}

// config layers flags over the config file over the defaults.
func (o *synthOptions) config(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("snapshot") {
		cfg.Snapshot = o.snapshotPath
	}
	if len(args) == 1 {
		cfg.Snapshot = args[0]
	}
	if flags.Changed("root") {
		cfg.Root = o.rootNode
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = o.concurrency
	}
	if flags.Changed("mismatch-policy") {
		cfg.MismatchPolicy = o.mismatchPolicy
	}
	if flags.Changed("format") {
		cfg.Format = o.format
	}
	if flags.Changed("select") {
		cfg.Select = o.selectPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if cfg.Format == "yml" {
		cfg.Format = "yaml"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openSpace serves SQLite captures straight from the database and loads
// JSON dumps into memory.
func openSpace(path string) (nodespace.Accessor, func() error, error) {
	if filepath.Ext(path) == ".db" {
		s, err := nodespace.OpenSQLiteSpace(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	m, err := nodespace.LoadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	return m, func() error { return nil }, nil
}

// reportWarnings logs each warning and returns how many were whole-entity drops.
func reportWarnings(logger *slog.Logger, warnings []synth.Warning) int {
	dropped := 0
	for _, w := range warnings {
		msg := "entity dropped"
		if w.Optional {
			msg = "field omitted"
		} else {
			dropped++
		}
		logger.Warn(msg,
			"role", w.Role.String(),
			"name", w.Name,
			"node", w.Node.String(),
			"field", w.Field,
			"error", w.Err)
	}
	return dropped
}

func writeOutput(stdout io.Writer, path string, v any, f export.Format) error {
	if path == "" {
		return export.Write(stdout, v, f)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := export.Write(file, v, f); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
