package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	pollledger "pollchain/contexts/governance/poll-ledger"
	abciadapter "pollchain/contexts/governance/poll-ledger/adapters/abci"
	"pollchain/contexts/governance/poll-ledger/adapters/memory"
	"pollchain/internal/platform/config"
	"pollchain/internal/platform/messaging"
	"pollchain/internal/platform/otel"

	abciserver "github.com/cometbft/cometbft/abci/server"
	"github.com/cometbft/cometbft/libs/service"
)

// NodeApp serves the ledger to CometBFT over the ABCI socket protocol.
type NodeApp struct {
	server    service.Service
	app       *abciadapter.App
	addr      string
	telemetry func(context.Context) error
	logger    *slog.Logger
}

// BuildNode always runs on the in-memory store. The app reports height 0 on
// start, so CometBFT replays the chain and rebuilds state from block one.
func BuildNode(ctx context.Context) (*NodeApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, "node")
	if cfg.Store != config.StoreMemory {
		logger.Warn("node ignores configured store",
			"event", "bootstrap_node_store_ignored",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"store", cfg.Store,
		)
	}

	telemetry, err := otel.Setup(ctx, cfg.ServiceName+"-node", cfg.OTELEndpoint, cfg.OTELEnabled)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	store := memory.NewStore()
	module := pollledger.NewModule(pollledger.Dependencies{
		Store:          store,
		Events:         messaging.NewBus(logger),
		Clock:          store,
		IDGen:          store,
		CommitAttempts: cfg.CommitAttempts,
		Logger:         logger,
	})
	app := &abciadapter.App{
		Dispatcher: module.Dispatcher,
		Tally:      module.Tally,
		Logger:     logger,
	}

	server, err := abciserver.NewServer(cfg.ABCIAddr, "socket", app)
	if err != nil {
		_ = telemetry(ctx)
		return nil, fmt.Errorf("create abci server: %w", err)
	}
	return &NodeApp{
		server:    server,
		app:       app,
		addr:      cfg.ABCIAddr,
		telemetry: telemetry,
		logger:    logger,
	}, nil
}

// Run blocks until ctx is done.
func (n *NodeApp) Run(ctx context.Context) error {
	if err := n.server.Start(); err != nil {
		return fmt.Errorf("start abci server: %w", err)
	}
	n.logger.Info("node app started",
		"event", "bootstrap_node_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"abci_addr", n.addr,
	)

	<-ctx.Done()
	if err := n.server.Stop(); err != nil {
		return fmt.Errorf("stop abci server: %w", err)
	}
	return nil
}

func (n *NodeApp) Close() error {
	return closeAll(storeHandle{}, n.telemetry)
}
