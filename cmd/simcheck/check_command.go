package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus/store"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/textsource"
)

func newCheckCommand(c *commandContext) *cobra.Command {
	var (
		id        string
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Check a document for plagiarism against the reference documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := textsource.ReadFile(args[0])
			if err != nil {
				return err
			}
			if id == "" {
				id = queryID(args[0])
			}
			opts := c.options()
			if cmd.Flags().Changed("threshold") {
				opts.SimilarityThreshold = threshold
			}
			return c.withCorpus(cmd.Context(), func(engine *analyzer.Engine, _ *store.Store) error {
				report, err := engine.Analyze(cmd.Context(), id, text, opts)
				if err != nil {
					return err
				}
				if c.outputFormat(cmd) == formatJSON {
					return writeJSON(cmd, report)
				}
				printSimilarityReport(cmd, report)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Query document ID (defaults to the file name)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Similarity threshold in [0,1] for this check")
	return cmd
}

func newCertificateCommand(c *commandContext) *cobra.Command {
	var (
		id        string
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "certificate <file>",
		Short: "Check a certificate for template forgery and duplicates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := textsource.ReadFile(args[0])
			if err != nil {
				return err
			}
			if id == "" {
				id = queryID(args[0])
			}
			opts := c.options()
			if cmd.Flags().Changed("threshold") {
				opts.TemplateThreshold = threshold
			}
			return c.withCorpus(cmd.Context(), func(engine *analyzer.Engine, _ *store.Store) error {
				report, err := engine.AnalyzeTemplate(cmd.Context(), id, text, nil, opts)
				if err != nil {
					return err
				}
				if c.outputFormat(cmd) == formatJSON {
					return writeJSON(cmd, report)
				}
				printTemplateReport(cmd, report)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Query certificate ID (defaults to the file name)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Template threshold in [0,1] for this check")
	return cmd
}

func queryID(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func printSimilarityReport(cmd *cobra.Command, r *analyzer.SimilarityReport) {
	out := cmd.OutOrStdout()
	renderFields(out, "Plagiarism check",
		[2]string{"Document", r.DocumentID},
		[2]string{"Plagiarized", yesNo(r.IsPlagiarized)},
		[2]string{"Confidence", fmt.Sprintf("%d%%", r.ConfidenceScore)},
		[2]string{"Max similarity", percent(r.MaxSimilarity * 100)},
		[2]string{"Average similarity", percent(r.AverageSimilarity * 100)},
		[2]string{"Threshold", percent(r.Threshold * 100)},
		[2]string{"References compared", fmt.Sprint(r.CorpusSize)},
		[2]string{"SHA-256", r.DocumentHash},
	)
	if len(r.TopMatches) > 0 {
		rows := make([][]any, 0, len(r.TopMatches))
		for _, m := range r.TopMatches {
			rows = append(rows, []any{m.Rank, m.DocumentID, percent(m.SimilarityScore),
				percent(m.JaccardSimilarity), percent(m.CosineSimilarity), yesNo(m.Similar)})
		}
		renderTable(out, "Top matches",
			[]string{"#", "Reference", "Combined", "Jaccard", "Cosine", "Similar"}, rows, 1, 3, 4, 5)
	}
	if len(r.MatchingParts) > 0 {
		rows := make([][]any, 0, len(r.MatchingParts))
		for _, p := range r.MatchingParts {
			rows = append(rows, []any{p.SourceDocument, p.LengthWords, p.MatchedText})
		}
		renderTable(out, "Matching parts", []string{"Reference", "Words", "Text"}, rows, 2)
	}
}

func printTemplateReport(cmd *cobra.Command, r *analyzer.TemplateMatchReport) {
	out := cmd.OutOrStdout()
	info := r.ExtractedInfo
	renderFields(out, "Certificate check",
		[2]string{"Certificate", r.CertificateID},
		[2]string{"Forged", yesNo(r.IsForged)},
		[2]string{"Confidence", fmt.Sprintf("%d%%", r.Confidence)},
		[2]string{"Closest template", r.ClosestTemplate},
		[2]string{"Template similarity", percent(r.MaxTemplateSimilarity * 100)},
		[2]string{"Holder", info.HolderName},
		[2]string{"Certificate number", info.CertificateNumber},
		[2]string{"Issue date", info.IssueDate},
		[2]string{"Issuing authority", info.IssuingAuthority},
		[2]string{"Qualification", info.Qualification},
	)
	if ev := r.ForgeryEvidence; ev != nil {
		renderFields(out, "Forgery evidence",
			[2]string{"Matched certificate", ev.MatchedCertificate},
			[2]string{"Template similarity", percent(ev.TemplateSimilarity)},
			[2]string{"Original holder", ev.OriginalHolder},
			[2]string{"Original number", ev.OriginalCertNumber},
			[2]string{"Original issue date", ev.OriginalIssueDate},
		)
	}
	if len(r.DuplicateCertificates) > 0 {
		rows := make([][]any, 0, len(r.DuplicateCertificates))
		for _, d := range r.DuplicateCertificates {
			rows = append(rows, []any{d.CertificateID, d.HolderName, percent(d.Similarity)})
		}
		renderTable(out, "Duplicates", []string{"Certificate", "Holder", "Similarity"}, rows, 3)
	}
	fmt.Fprintln(out, r.Explanation)
}
