package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"farm-assistant/config"
	"farm-assistant/internal/container"
	"farm-assistant/internal/infrastructure/model"
	"farm-assistant/internal/infrastructure/vision"
	"farm-assistant/internal/logger"
)

// cliEnv: конфигурация и логгер, общие для всех команд.
type cliEnv struct {
	cfg  *config.Config
	lggr logger.Logger
}

func newRootCmd() *cobra.Command {
	rt := &cliEnv{}

	root := &cobra.Command{
		Use:           "farmassist",
		Short:         "Plant disease detection and crop advice backend",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			lggr, err := logger.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			rt.cfg, rt.lggr = cfg, lggr
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.lggr != nil {
				_ = rt.lggr.Sync()
			}
		},
	}

	root.AddCommand(
		rt.newServeCmd(),
		rt.newBotCmd(),
		rt.newSetupModelCmd(),
		rt.newClassifyCmd(),
	)
	return root
}

func (rt *cliEnv) newServeCmd() *cobra.Command {
	var withBot bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := container.New(ctx, rt.cfg, rt.lggr)
			if err != nil {
				return err
			}
			defer c.Close()

			if withBot {
				bot, err := c.TelegramBot()
				if err != nil {
					return err
				}
				go func() {
					if err := bot.Run(ctx); err != nil {
						rt.lggr.Errorw("Telegram bot stopped", "err", err)
					}
				}()
			}

			return c.HTTPServer().Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&withBot, "with-bot", false, "also run the Telegram bot")
	return cmd
}

func (rt *cliEnv) newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := container.New(ctx, rt.cfg, rt.lggr)
			if err != nil {
				return err
			}
			defer c.Close()

			bot, err := c.TelegramBot()
			if err != nil {
				return err
			}
			rt.lggr.Infow("Bot is running")
			return bot.Run(ctx)
		},
	}
}

func (rt *cliEnv) newSetupModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-model",
		Short: "Train synthetic disease and crop models and save them to MODEL_DIR",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cat, err := container.OpenCatalog(rt.cfg, rt.lggr)
			if err != nil {
				return err
			}

			provider := container.SyntheticProvider(rt.cfg, rt.lggr, cat, vision.NewRegistry())
			bundle, err := provider.Train(ctx)
			if err != nil {
				return err
			}
			if err := model.SaveBundle(provider.Path, bundle); err != nil {
				return err
			}
			rt.lggr.Infow("Disease model saved", "path", provider.Path, "classes", len(bundle.Labels))

			cropPath := container.CropModelPath(rt.cfg)
			if err := os.Remove(cropPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return model.NewCropRecommender(rt.lggr, cat, cropPath).Open(ctx)
		},
	}
}

func (rt *cliEnv) newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <image>",
		Short: "Classify a leaf image and print the detection record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c, err := container.New(ctx, rt.cfg, rt.lggr)
			if err != nil {
				return err
			}
			defer c.Close()

			rec, err := c.DetectionService.Classify(ctx, data)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
}
