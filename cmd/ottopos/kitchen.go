package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/hammamikhairi/ottopos/internal/api"
	"github.com/hammamikhairi/ottopos/internal/chime"
	"github.com/hammamikhairi/ottopos/internal/clock"
	"github.com/hammamikhairi/ottopos/internal/config"
	"github.com/hammamikhairi/ottopos/internal/display"
	"github.com/hammamikhairi/ottopos/internal/kitchen"
	"github.com/hammamikhairi/ottopos/internal/logger"
	"github.com/hammamikhairi/ottopos/internal/notify"
	"github.com/hammamikhairi/ottopos/internal/storage"
)

func runKitchen(cfg config.Config, log *logger.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := api.NewClient(cfg.BaseURL, log, api.WithHTTPTimeout(cfg.HTTPTimeout))
	seen := storage.NewMemorySeenStore(log.Named("seen"))

	// The board owns the screen, so text notices go to the log and only
	// the chime is audible.
	var sound chime.Sounder = chime.Silent{}
	if cfg.Kitchen.Chime {
		player, err := chime.NewPlayer(log.Named("chime"), cfg.Kitchen.ChimeVolume)
		if err != nil {
			log.Error("audio player init failed, chime disabled: %v", err)
		} else {
			sound = player
		}
	}
	notifier := notify.NewChimeNotifier(
		notify.NewCLINotifier(log, log.Named("board").Info),
		sound,
		log,
	)

	poller := kitchen.NewPoller(client, seen, log.Named("poller"),
		kitchen.WithInterval(cfg.Kitchen.PollInterval),
		kitchen.WithSortOrder(cfg.SortOrder()),
		kitchen.WithAlertDuration(cfg.Kitchen.AlertDuration),
		kitchen.WithSeenRetention(cfg.Kitchen.SeenRetention),
		kitchen.WithNotifier(notifier),
	)
	live := clock.NewLive(log.Named("clock"), clock.WithTickInterval(cfg.Kitchen.TickInterval))

	poller.Start(ctx)
	defer poller.Stop()
	live.Start(ctx)
	defer live.Stop()

	board := display.NewBoard(poller, live, client, log.Named("board"))
	return board.Run(ctx)
}
