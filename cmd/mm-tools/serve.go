package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sadisms/mm-tools/bot"
	"github.com/Sadisms/mm-tools/dedup"
	"github.com/Sadisms/mm-tools/dispatch"
	"github.com/Sadisms/mm-tools/internal/logutil"
	"github.com/Sadisms/mm-tools/migrate"
	"github.com/Sadisms/mm-tools/platform"
	"github.com/Sadisms/mm-tools/session"
	"github.com/Sadisms/mm-tools/state"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serve runs the event feed with a tracing pipeline: deliveries are
// dedup-guarded and session-bound exactly like an embedding bot's handlers,
// then logged. Real handlers are registered by programs embedding this
// module; serve is the operational smoke-run of the plumbing.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Listen to the platform event feed and dispatch inbound events",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}

			gdb, err := openDBFromViper()
			if err != nil {
				return err
			}
			sessions, err := sessionStoreFromViper(gdb)
			if err != nil {
				return err
			}

			client := platformClientFromViper()
			machine := state.NewMachine(state.NewGormStore(gdb), state.WithMirror())
			plugin := bot.NewPlugin(client, migrate.NewGormRecordStore(gdb), logger)

			guard := dedup.New()
			dispatcher := dispatch.NewDispatcher(logger)
			registerTraceHandlers(dispatcher, logger, guard, sessions, machine, plugin)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go pruneLoop(ctx, guard)

			logger.Info("serve_started", "server_url", viper.GetString("mattermost.server_url"))
			err = client.Listen(ctx, logger, func(ev platform.WSEvent) {
				userID, _ := dispatch.LookupString(ev.Data, "user_id")
				if dispatchErr := dispatcher.Dispatch(ctx, ev.Event, dispatch.Event{
					UserID: userID,
					Body:   ev.Data,
				}); dispatchErr != nil {
					logger.Warn("event_dispatch_failed", "trigger", ev.Event, "error", dispatchErr.Error())
				}
			})
			if errors.Is(err, context.Canceled) {
				logger.Info("serve_stopped")
				return nil
			}
			return err
		},
	}
}

func registerTraceHandlers(d *dispatch.Dispatcher, logger *slog.Logger, guard *dedup.Guard, sessions session.Store, machine *state.Machine, plugin *bot.Plugin) {
	cooldown := viper.GetDuration("dedup.default_cooldown")

	// Plain messages from idle users; users inside a flow are handled by
	// that flow's own handlers.
	d.Register("posted",
		func(ctx context.Context, ev dispatch.Event) error {
			username, err := plugin.Username(ctx, ev.UserID)
			if err != nil {
				username = ev.UserID
			}
			logger.Debug("event_posted", "user_id", ev.UserID, "username", username)
			return nil
		},
		guard.Middleware("trace_posted", cooldown, dedup.Path{"post", "id"}),
		state.OnState(machine, ""),
	)

	d.Register("dialog_submission",
		func(ctx context.Context, ev dispatch.Event) error {
			if s, ok := session.FromContext(ctx); ok {
				logger.Debug("event_dialog_submission", "user_id", ev.UserID, "session_id", s.SessionID)
			}
			return nil
		},
		session.BindDialog(sessions),
	)
}

func pruneLoop(ctx context.Context, guard *dedup.Guard) {
	interval := viper.GetDuration("dedup.prune_interval")
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			guard.Prune(interval)
		}
	}
}
