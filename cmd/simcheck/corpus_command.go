package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus/store"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/textsource"
)

const cliSource = "cli"

func newCorpusCommand(c *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage the local reference corpus",
	}
	cmd.AddCommand(newCorpusAddCommand(c), newCorpusListCommand(c))
	return cmd
}

func newCorpusAddCommand(c *commandContext) *cobra.Command {
	var isCertificate bool
	cmd := &cobra.Command{
		Use:   "add <id> <file>",
		Short: "Register a reference document or certificate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := textsource.ReadFile(args[1])
			if err != nil {
				return err
			}
			kind := kindFlag(isCertificate)
			return c.withCorpus(cmd.Context(), func(engine *analyzer.Engine, s *store.Store) error {
				pub := publisher.New(ingestion.NewRegistrar(engine, s, nil), nil, cliSource)
				resp, err := pub.Register(cmd.Context(), kind, &ingestion.RegisterRequest{ID: args[0], Text: text})
				if err != nil {
					return err
				}
				if c.outputFormat(cmd) == formatJSON {
					return writeJSON(cmd, resp)
				}
				pairs := [][2]string{
					{"ID", resp.ID},
					{"Kind", string(resp.Kind)},
					{"Corpus size", strconv.Itoa(resp.CorpusSize)},
				}
				if kind == store.KindCertificate {
					pairs = append(pairs,
						[2]string{"Holder", resp.Fields.HolderName},
						[2]string{"Certificate number", resp.Fields.CertificateNumber},
						[2]string{"Issue date", resp.Fields.IssueDate},
					)
				}
				renderFields(cmd.OutOrStdout(), "Registered", pairs...)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&isCertificate, "certificate", false, "Register into the certificate corpus")
	return cmd
}

// listedReference is one row of corpus list.
type listedReference struct {
	ID     string `json:"id"`
	Seq    uint64 `json:"seq"`
	Bytes  int    `json:"bytes"`
	Holder string `json:"holder,omitempty"`
}

func newCorpusListCommand(c *commandContext) *cobra.Command {
	var isCertificate bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered references in rank order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := kindFlag(isCertificate)
			return c.withCorpus(cmd.Context(), func(engine *analyzer.Engine, _ *store.Store) error {
				reg := engine.Documents()
				if kind == store.KindCertificate {
					reg = engine.Certificates()
				}
				docs, _ := reg.Snapshot()
				refs := make([]listedReference, 0, len(docs))
				for _, d := range docs {
					refs = append(refs, listedReference{ID: d.ID, Seq: d.Seq, Bytes: len(d.Text), Holder: d.Fields.HolderName})
				}
				if c.outputFormat(cmd) == formatJSON {
					return writeJSON(cmd, refs)
				}
				rows := make([][]any, 0, len(refs))
				for _, r := range refs {
					rows = append(rows, []any{r.Seq, r.ID, r.Bytes, r.Holder})
				}
				renderTable(cmd.OutOrStdout(), string(kind)+" references",
					[]string{"Seq", "ID", "Bytes", "Holder"}, rows, 1, 3)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&isCertificate, "certificate", false, "List the certificate corpus")
	return cmd
}

func kindFlag(isCertificate bool) store.Kind {
	if isCertificate {
		return store.KindCertificate
	}
	return store.KindDocument
}
