package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"taskit/internal/bot"
	"taskit/internal/service"
	"taskit/internal/web"
)

var serveAddr string

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API, the Telegram bot and the scheduled jobs",
		Long: `Start TaskIt.

The Telegram bot is started only when TELEGRAM_TOKEN is set. Anchored daily
tasks are refreshed at local midnight; daily reports go out at REPORT_TIME or
every REPORT_INTERVAL_HOURS.

Examples:
  taskit serve
  taskit serve --addr :9090`,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	addr := a.cfg.HTTPAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	server := web.NewServer(web.Services{
		Users:    a.users,
		Tasks:    a.tasks,
		Due:      a.due,
		LongTerm: a.longTerm,
		Events:   a.events,
		Stats:    a.stats,
	}, a.clock)

	var telegramBot *bot.Bot
	if a.cfg.BotEnabled() {
		telegramBot, err = bot.New(a.cfg.TelegramToken, bot.Services{
			Users:     a.users,
			Tasks:     a.tasks,
			Due:       a.due,
			LongTerm:  a.longTerm,
			Events:    a.events,
			Stats:     a.stats,
			Reminders: a.reminders,
		}, a.clock)
		if err != nil {
			return err
		}
	} else {
		log.Println("[info] TELEGRAM_TOKEN is empty, bot disabled")
	}

	scheduler := service.NewSchedulerService(a.clock)
	refreshID, err := scheduler.ScheduleDaily("00:00", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := service.RefreshAllUsers(jobCtx, a.users, a.due); err != nil {
			log.Printf("refresh: %v", err)
		}
	})
	if err != nil {
		return err
	}

	if telegramBot != nil {
		report := func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("report: %v", err)
			}
		}
		if a.cfg.ReportInterval > 0 {
			_, err = scheduler.ScheduleInterval(a.cfg.ReportInterval, report)
		} else {
			_, err = scheduler.ScheduleDaily(a.cfg.ReportTime, report)
		}
		if err != nil {
			return err
		}
	}

	scheduler.Start()
	defer scheduler.Stop()
	log.Printf("[info] next anchored refresh at %s", scheduler.Next(refreshID).Format(time.RFC3339))

	// Catch up on a refresh missed while the process was down.
	if err := service.RefreshAllUsers(ctx, a.users, a.due); err != nil {
		log.Printf("startup refresh: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, addr)
	})
	if telegramBot != nil {
		g.Go(func() error {
			return telegramBot.Start(gctx)
		})
	}

	log.Println("TaskIt started.")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("Shutdown complete.")
	return nil
}
