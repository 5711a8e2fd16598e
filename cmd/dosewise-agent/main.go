package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dosewise/dosewise/internal/config"
	"github.com/dosewise/dosewise/internal/domain/intake"
	"github.com/dosewise/dosewise/internal/domain/schedule"
	"github.com/dosewise/dosewise/internal/platform/middleware"
	"github.com/dosewise/dosewise/internal/platform/rest"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dosewise-agent",
		Short: "Medication adherence agent",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(dueCmd())
	rootCmd.AddCommand(takeCmd())
	rootCmd.AddCommand(missCmd())
	rootCmd.AddCommand(snoozeCmd())
	rootCmd.AddCommand(scheduleCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app wires the shared core: one backend client, one cache, and the
// domain services every command drives.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	cache      *intake.Cache
	reconciler *intake.Reconciler
	engine     *intake.Engine
	snoozer    *intake.Snoozer
	schedules  *schedule.Service
}

func buildApp(logger zerolog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := rest.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.HTTPTimeoutDuration(), logger)
	cache := intake.NewCache(cfg.CacheDir, logger)
	intakeRepo := intake.NewRepoHTTP(client)
	scheduleRepo := schedule.NewRepoHTTP(client)

	return &app{
		cfg:        cfg,
		logger:     logger,
		cache:      cache,
		reconciler: intake.NewReconciler(intakeRepo, cache, logger),
		engine:     intake.NewEngine(intakeRepo, cache, logger),
		snoozer:    intake.NewSnoozer(intakeRepo, cfg.SnoozeOffset(), logger),
		schedules:  schedule.NewService(scheduleRepo, logger),
	}, nil
}

func serverLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// cliLogger keeps command output clean: structured logs go to stderr and
// only warnings and up are shown.
func cliLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the notification listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	logger := serverLogger()

	a, err := buildApp(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	handler := intake.NewHandler(a.reconciler, a.engine, a.snoozer, a.cache, logger)
	handler.RegisterRoutes(e.Group(""))

	go func() {
		logger.Info().Str("port", a.cfg.Port).Msg("starting agent")
		if err := e.Start(":" + a.cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}

func dueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "due <intake-log-id>...",
		Short: "Resolve and show the entries for a reminder batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cliLogger())
			if err != nil {
				return err
			}

			entries, err := a.reconciler.Resolve(cmd.Context(), intake.Batch{
				MedicationIDs: args,
				FiredAt:       time.Now(),
			})
			if err != nil {
				return err
			}
			printEntries(entries)
			if intake.Complete(entries) {
				color.Green("all doses logged")
			}
			return nil
		},
	}
}

func takeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "take <intake-log-id>...",
		Short: "Mark entries as taken",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transitionCmd(cmd, args, intake.StatusTaken, false)
		},
	}
}

func missCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "miss <intake-log-id>...",
		Short: "Mark entries as missed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			confirmed, _ := cmd.Flags().GetBool("confirm")
			return transitionCmd(cmd, args, intake.StatusMissed, confirmed)
		},
	}
	cmd.Flags().Bool("confirm", false, "Allow reverting an already-taken entry to missed")
	return cmd
}

func transitionCmd(cmd *cobra.Command, ids []string, to intake.Status, confirmed bool) error {
	a, err := buildApp(cliLogger())
	if err != nil {
		return err
	}

	failures := 0
	for _, id := range ids {
		var terr error
		if confirmed {
			terr = a.engine.ConfirmTransitionOne(cmd.Context(), id, to)
		} else {
			terr = a.engine.TransitionOne(cmd.Context(), id, to)
		}
		if terr != nil {
			failures++
			color.Red("%s: %v", id, terr)
			continue
		}
		fmt.Printf("%s %s\n", statusColor(to).Sprint(to), id)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d entries failed", failures, len(ids))
	}
	return nil
}

func snoozeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snooze [intake-log-id]...",
		Short: "Snooze the reminder for pending entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cliLogger())
			if err != nil {
				return err
			}

			entries := a.cache.GetAll()
			if len(args) > 0 {
				wanted := make(map[string]struct{}, len(args))
				for _, id := range args {
					wanted[id] = struct{}{}
				}
				filtered := entries[:0]
				for _, e := range entries {
					if _, ok := wanted[e.ID]; ok {
						filtered = append(filtered, e)
					}
				}
				entries = filtered
			}

			result, err := a.snoozer.Snooze(cmd.Context(), entries)
			if err != nil {
				return err
			}
			if result.Message != "" {
				fmt.Println(result.Message)
			}
			color.Yellow("next reminder at %s", result.NextFireTime.Local().Format("15:04"))
			return nil
		},
	}
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect and edit a medication's dose schedule",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <medication-id>",
		Short: "Show a medication's dose schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cliLogger())
			if err != nil {
				return err
			}

			sched, err := a.schedules.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSchedule(sched)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <medication-id> <HH:MM>...",
		Short: "Replace a medication's dose times",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cliLogger())
			if err != nil {
				return err
			}

			outcome, err := a.schedules.Submit(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}
			if !outcome.OK {
				color.Red(outcome.Message)
				return fmt.Errorf("schedule update rejected")
			}
			color.Green(outcome.Message)
			if outcome.Updated != nil {
				printSchedule(outcome.Updated)
			}
			return nil
		},
	})

	return cmd
}

func printEntries(entries []intake.LogEntry) {
	for _, e := range entries {
		fmt.Printf("%-8s %s  %s (%s)  due %s\n",
			statusColor(e.Status).Sprint(e.Status),
			e.ID,
			e.MedicationName,
			e.MedicationType,
			e.ScheduledTime.Local().Format("15:04"),
		)
	}
}

func printSchedule(s *schedule.Schedule) {
	fmt.Printf("%s  %s %s\n", color.New(color.Bold).Sprint(s.Name), s.Dosage, s.Unit)
	fmt.Printf("  dose times: %s\n", strings.Join(s.DoseTimes, ", "))
	if s.DoseIntervalMinutes != nil {
		fmt.Printf("  minimum interval: %s\n", schedule.FormatInterval(*s.DoseIntervalMinutes))
	}
}

func statusColor(s intake.Status) *color.Color {
	switch s {
	case intake.StatusTaken:
		return color.New(color.FgGreen)
	case intake.StatusMissed:
		return color.New(color.FgRed)
	}
	return color.New(color.FgYellow)
}
