package pollledger

import (
	"log/slog"

	httpadapter "pollchain/contexts/governance/poll-ledger/adapters/http"
	"pollchain/contexts/governance/poll-ledger/adapters/memory"
	"pollchain/contexts/governance/poll-ledger/application/commands"
	"pollchain/contexts/governance/poll-ledger/application/dispatch"
	"pollchain/contexts/governance/poll-ledger/application/queries"
	"pollchain/contexts/governance/poll-ledger/application/workers"
	"pollchain/contexts/governance/poll-ledger/ports"
)

const sourceService = "poll-ledger"

type Module struct {
	Handler    httpadapter.Handler
	Ledger     commands.LedgerUseCase
	Tally      queries.TallyUseCase
	Dispatcher dispatch.Dispatcher
	Auditor    workers.TallyAuditor
	Activity   *workers.ActivityFeed
	Store      ports.RecordStore
	// Memory is set only by NewInMemoryModule.
	Memory *memory.Store
}

type Dependencies struct {
	Store          ports.RecordStore
	Events         ports.EventPublisher
	Subscriber     ports.EventSubscriber
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	CommitAttempts int
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	ledger := commands.LedgerUseCase{
		Store:          deps.Store,
		Events:         deps.Events,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		CommitAttempts: deps.CommitAttempts,
		SourceService:  sourceService,
		Logger:         deps.Logger,
	}
	tally := queries.TallyUseCase{
		Store:  deps.Store,
		Logger: deps.Logger,
	}
	dispatcher := dispatch.Dispatcher{
		Ledger: ledger,
		Tally:  tally,
		Logger: deps.Logger,
	}
	var activity *workers.ActivityFeed
	if deps.Subscriber != nil {
		activity = &workers.ActivityFeed{
			Subscriber: deps.Subscriber,
			Logger:     deps.Logger,
		}
	}
	return Module{
		Handler: httpadapter.Handler{
			Ledger:     ledger,
			Tally:      tally,
			Dispatcher: dispatcher,
			Activity:   activity,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
		Ledger:     ledger,
		Tally:      tally,
		Dispatcher: dispatcher,
		Auditor: workers.TallyAuditor{
			Tally:  tally,
			Logger: deps.Logger,
		},
		Activity: activity,
		Store:    deps.Store,
	}
}

// NewInMemoryModule wires the module to a fresh in-process store. events may
// be nil, in which case nothing is published.
func NewInMemoryModule(events ports.EventPublisher, subscriber ports.EventSubscriber, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Store:      store,
		Events:     events,
		Subscriber: subscriber,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Memory = store
	return module
}
