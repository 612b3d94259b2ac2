package main

import (
	"fmt"

	"github.com/huangang/modsentry/backend/internal/config"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/huangang/modsentry/backend/internal/services"
	"github.com/huangang/modsentry/backend/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// env is what every subcommand works with once the root has opened the database
type env struct {
	cfg      *config.Config
	db       *gorm.DB
	settings *services.SettingsService
}

func (e *env) training() *services.TrainingService {
	return services.NewTrainingService(e.db, e.settings, scoring.NewClassifier(), e.cfg.Moderation.ModelDir, nil)
}

func rootCommand() *cobra.Command {
	var configPath string
	e := &env{}

	root := &cobra.Command{
		Use:           "modctl",
		Short:         "Moderation maintenance CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Log.Level)

			db, err := models.Open(&cfg.Database)
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			services.InitSystemLogger(db)

			e.cfg = cfg
			e.db = db
			e.settings = services.NewSettingsService(db)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default $CONFIG_PATH or ./config.yaml)")

	root.AddCommand(
		resetStuckCommand(e),
		queueCommand(e),
		retrainCommand(e),
		thresholdsCommand(e),
		settingsCommand(e),
		seedCommand(e),
	)
	return root
}
