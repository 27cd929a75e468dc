package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/funnel"
	"pelviu-funnel/internal/models"
	"pelviu-funnel/internal/questionbank"
	"pelviu-funnel/internal/scoring"
	"pelviu-funnel/internal/store"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newQuestionsCmd(a *app) *cobra.Command {
	var (
		gender   string
		bankPath string
	)
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Print the question track for a gender",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, ok := models.ParseGender(gender)
			if !ok {
				return fmt.Errorf("unknown gender %q (use mujer or hombre)", gender)
			}
			bank, err := questionbank.Load(bankPath)
			if err != nil {
				return err
			}
			questions, _ := bank.Questions(g)
			fmt.Fprintf(a.out, "# %s track, bank %s, max %d\n", g, bank.Version(), bank.MaxPossible(g))
			for _, q := range questions {
				fmt.Fprintf(a.out, "%d. %s\n", q.ID, q.Text)
				for _, o := range q.Options {
					fmt.Fprintf(a.out, "   [%2d] %s\n", o.Score, o.Label)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&gender, "gender", "mujer", "question track (mujer|hombre)")
	cmd.Flags().StringVar(&bankPath, "bank", "", "YAML question bank override")
	return cmd
}

func toAnswers(raw map[string]int) (models.Answers, error) {
	answers := make(models.Answers, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("question id %q is not a number", k)
		}
		answers[id] = v
	}
	return answers, nil
}

func newScoreCmd(a *app) *cobra.Command {
	var (
		gender   string
		bankPath string
		raw      map[string]int
		save     bool
	)
	cmd := &cobra.Command{
		Use:     "score",
		Short:   "Score an answer set (dry run unless --save)",
		Example: "  lead-admin score --gender mujer --answers 1=5,2=10,3=10,4=10,5=10",
		RunE: func(cmd *cobra.Command, args []string) error {
			answers, err := toAnswers(raw)
			if err != nil {
				return err
			}

			if !save {
				g, ok := models.ParseGender(gender)
				if !ok {
					return fmt.Errorf("unknown gender %q (use mujer or hombre)", gender)
				}
				bank, err := questionbank.Load(bankPath)
				if err != nil {
					return err
				}
				result, err := scoring.NewEngine(bank, logger.NewNoOpLogger()).Score(answers, g)
				if err != nil {
					return err
				}
				return printJSON(a.out, result)
			}

			svc, done, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			outcome, err := svc.Assess(cmd.Context(), funnel.AssessRequest{Gender: gender, Answers: answers})
			if err != nil {
				return err
			}
			return printJSON(a.out, outcome)
		},
	}
	cmd.Flags().StringVar(&gender, "gender", "mujer", "question track (mujer|hombre)")
	cmd.Flags().StringVar(&bankPath, "bank", "", "YAML question bank override for dry runs")
	cmd.Flags().StringToIntVar(&raw, "answers", nil, "question=score pairs")
	cmd.Flags().BoolVar(&save, "save", false, "persist the assessment to the configured store")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var rangeFlag string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard KPIs and insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := models.ParseTimeFilter(rangeFlag)
			if err != nil {
				return err
			}
			svc, done, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			report := svc.Stats(cmd.Context(), filter)
			if report.Degraded {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: lead store unavailable, stats are empty")
			}
			return printJSON(a.out, report)
		},
	}
	cmd.Flags().StringVar(&rangeFlag, "range", "all", "time window (all|7d|30d)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all leads as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if out == "-" {
				_, err := svc.ExportCSV(cmd.Context(), a.out)
				return err
			}
			if out == "" {
				out = store.ExportFilename(time.Now())
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if _, err := svc.ExportCSV(cmd.Context(), f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported leads to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout (default pelviu_leads_<date>.csv)")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored lead",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear leads without --yes")
			}
			svc, done, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			before := svc.Leads(cmd.Context()).Records
			if err := svc.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "cleared %d leads\n", len(before))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
