package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/huangang/modsentry/backend/internal/services"
	"github.com/spf13/cobra"
)

func resetStuckCommand(e *env) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "reset-stuck",
		Short: "Requeue content left in processing by a crashed worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timeout") {
				timeout = e.cfg.Moderation.StuckTimeout
			}
			n, err := services.NewQueueService(e.db).ResetStuck(cmd.Context(), timeout)
			if err != nil {
				return err
			}
			services.LogInfo("queue", "reset_stuck", fmt.Sprintf("modctl requeued %d stuck items (timeout %s)", n, timeout), nil, "", nil)
			fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d items processing for longer than %s\n", n, timeout)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "how long an item may stay in processing (default from config)")
	return cmd
}

func queueCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show content counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := services.NewQueueService(e.db).Counts(cmd.Context())
			if err != nil {
				return err
			}
			statuses := make([]string, 0, len(counts))
			for s := range counts {
				statuses = append(statuses, s)
			}
			sort.Strings(statuses)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-16s %8s\n", "STATUS", "COUNT")
			for _, s := range statuses {
				fmt.Fprintf(out, "%-16s %8d\n", s, counts[s])
			}
			return nil
		},
	}
}

func retrainCommand(e *env) *cobra.Command {
	var force, noActivate bool
	cmd := &cobra.Command{
		Use:   "retrain",
		Short: "Train a classifier version from gold labels",
		Long: `Without --force a version is trained only when the gold-label counter
has reached the retrain threshold and retraining is enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			training := e.training()
			var (
				mv  *models.ModelVersion
				err error
			)
			if force {
				mv, err = training.Train(cmd.Context(), !noActivate)
			} else {
				mv, err = training.RetrainIfNeeded(cmd.Context())
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if mv == nil {
				fmt.Fprintln(out, "Retrain not due")
				return nil
			}
			fmt.Fprintf(out, "Trained v%d on %d examples (accuracy %.3f, f1 %.3f, active %t)\n",
				mv.Version, mv.TrainingSampleCount, mv.Accuracy, mv.F1Score, mv.IsActive)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "train even if the counter has not reached the threshold")
	cmd.Flags().BoolVar(&noActivate, "no-activate", false, "with --force, keep the current active version")
	return cmd
}

func thresholdsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Show or change the decision thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.settings.Get(cmd.Context())
			if err != nil {
				return err
			}
			printThresholds(cmd, s.Thresholds())
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set ALLOW REVIEW BLOCK",
		Short: "Set all three thresholds",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals := make([]float64, 3)
			for i, a := range args {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("threshold %q: %w", a, err)
				}
				vals[i] = v
			}
			s, err := e.settings.UpdateThresholds(cmd.Context(), scoring.Thresholds{Allow: vals[0], Review: vals[1], Block: vals[2]})
			if err != nil {
				return err
			}
			printThresholds(cmd, s.Thresholds())
			return nil
		},
	}

	adapt := &cobra.Command{
		Use:   "adapt",
		Short: "Run one threshold adaptation from recent reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := services.NewThresholdService(e.db, e.settings, e.cfg.Moderation.ClampThresholds, nil)
			upd, err := svc.Update(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if upd.Skipped {
				fmt.Fprintf(out, "Skipped: only %d reviews in the window\n", upd.Stats.Samples)
				return nil
			}
			fmt.Fprintf(out, "FP rate %.3f, FN rate %.3f over %d reviews\n",
				upd.Stats.FalsePositiveRate, upd.Stats.FalseNegativeRate, upd.Stats.Samples)
			printThresholds(cmd, upd.After)
			return nil
		},
	}

	cmd.AddCommand(set, adapt)
	return cmd
}

func printThresholds(cmd *cobra.Command, t scoring.Thresholds) {
	fmt.Fprintf(cmd.OutOrStdout(), "allow=%.3f review=%.3f block=%.3f\n", t.Allow, t.Review, t.Block)
}

func settingsCommand(e *env) *cobra.Command {
	var (
		retrainThreshold int
		enable, disable  bool
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change retraining settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if enable && disable {
				return fmt.Errorf("--enable-retraining and --disable-retraining are exclusive")
			}
			if cmd.Flags().Changed("retrain-threshold") {
				if _, err := e.settings.UpdateRetrainThreshold(ctx, retrainThreshold); err != nil {
					return err
				}
			}
			if enable || disable {
				if _, err := e.settings.SetRetrainingEnabled(ctx, enable); err != nil {
					return err
				}
			}

			s, err := e.settings.Get(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printThresholds(cmd, s.Thresholds())
			fmt.Fprintf(out, "retraining_enabled=%t retrain_threshold=%d new_gold=%d\n",
				s.RetrainingEnabled, s.RetrainThreshold, s.NewGoldSinceLastTrain)
			if s.LastRetrainDate != nil {
				fmt.Fprintf(out, "last_retrain=%s\n", s.LastRetrainDate.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&retrainThreshold, "retrain-threshold", 0, "gold labels needed before a retrain")
	cmd.Flags().BoolVar(&enable, "enable-retraining", false, "turn automatic retraining on")
	cmd.Flags().BoolVar(&disable, "disable-retraining", false, "turn automatic retraining off")
	return cmd
}

func seedCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create default settings, sample content and the base wordlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := models.Seed(e.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Seeded default data")
			return nil
		},
	}
}
