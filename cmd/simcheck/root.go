package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus/store"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/logger"
)

const (
	formatAuto  = "auto"
	formatJSON  = "json"
	formatTable = "table"
)

// commandContext holds the persistent flags and the loaded configuration
// shared by every subcommand.
type commandContext struct {
	configPath string
	corpusPath string
	format     string
	logLevel   string

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	c := &commandContext{}
	root := &cobra.Command{
		Use:           "simcheck",
		Short:         "Check documents and certificates against a local reference corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetupWriter(cmd.ErrOrStderr(), c.logLevel, "text")
			return c.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Configuration file (YAML or TOML)")
	flags.StringVar(&c.corpusPath, "corpus", "", "SQLite corpus file (overrides sqlite.path)")
	flags.StringVarP(&c.format, "format", "f", formatAuto, "Output format: json, table or auto")
	flags.StringVar(&c.logLevel, "log-level", "warn", "Log level written to stderr")

	root.AddCommand(newCheckCommand(c))
	root.AddCommand(newCertificateCommand(c))
	root.AddCommand(newCorpusCommand(c))
	return root
}

func (c *commandContext) load() error {
	switch c.format {
	case formatAuto, formatJSON, formatTable:
	default:
		return fmt.Errorf("unknown format %q (want json, table or auto)", c.format)
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if path := strings.TrimSpace(c.corpusPath); path != "" {
		cfg.SQLite.Path = path
	}
	c.cfg = cfg
	return nil
}

func (c *commandContext) options() analyzer.Options {
	return analyzer.OptionsFromConfig(c.cfg.Engine)
}

// withCorpus opens the SQLite corpus, loads it into a fresh engine and
// calls fn. The file stays locked until fn returns.
func (c *commandContext) withCorpus(ctx context.Context, fn func(*analyzer.Engine, *store.Store) error) error {
	s, err := store.OpenSQLite(ctx, c.cfg.SQLite)
	if err != nil {
		return err
	}
	defer s.Close()

	engine := analyzer.New(corpus.NewRegistry(), corpus.NewRegistry(), c.cfg.Engine.Workers)
	for kind, reg := range map[store.Kind]*corpus.Registry{
		store.KindDocument:    engine.Documents(),
		store.KindCertificate: engine.Certificates(),
	} {
		docs, err := s.LoadAll(ctx, kind)
		if err != nil {
			return err
		}
		if err := reg.Load(docs); err != nil {
			return err
		}
	}
	return fn(engine, s)
}

// outputFormat resolves auto to a table on terminals and JSON otherwise.
func (c *commandContext) outputFormat(cmd *cobra.Command) string {
	if c.format != formatAuto {
		return c.format
	}
	if f, ok := cmd.OutOrStdout().(*os.File); ok && isTerminal(f) {
		return formatTable
	}
	return formatJSON
}
