package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/hazstudy/internal/assistant"
	"github.com/zulandar/hazstudy/internal/dashboard"
	"github.com/zulandar/hazstudy/internal/digest"
)

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.ErrOrStderr(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serves the study workflow as a JSON API. When the digest is enabled in
the config, the overdue-assignment digest runs on its cron schedule alongside.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = a.cfg.Server.Port
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	if a.cfg.Digest.Enabled {
		sched, err := digest.NewScheduler(digest.SchedulerOpts{
			Studies: a.studies,
			Cron:    a.cfg.Digest.Cron,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := sched.Run(ctx); err != nil {
				log.Printf("hz: digest: %v", err)
			}
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "Digest scheduled (%s)\n", a.cfg.Digest.Cron)
	}

	return dashboard.Start(ctx, dashboard.StartOpts{
		Controller: a.ctrl,
		Port:       port,
		Out:        cmd.OutOrStdout(),
	})
}

func newMCPCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalog and recommendations to MCP clients over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()
			return assistant.Run(ctx, a.ctrl)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newDigestCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print the overdue-assignment report once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			sessions, err := a.ctrl.List()
			if err != nil {
				return err
			}
			title, body := digest.Format(digest.Overdue(sessions, time.Now()))
			fmt.Fprintln(cmd.OutOrStdout(), title)
			if body != "" {
				fmt.Fprintln(cmd.OutOrStdout(), body)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
