package votingrights

import (
	"log/slog"
	"time"

	httpadapter "assembly/contexts/assembly-governance/voting-rights/adapters/http"
	"assembly/contexts/assembly-governance/voting-rights/adapters/memory"
	"assembly/contexts/assembly-governance/voting-rights/adapters/notifications"
	"assembly/contexts/assembly-governance/voting-rights/adapters/otp"
	"assembly/contexts/assembly-governance/voting-rights/adapters/storage"
	"assembly/contexts/assembly-governance/voting-rights/adapters/templates"
	"assembly/contexts/assembly-governance/voting-rights/application/commands"
	"assembly/contexts/assembly-governance/voting-rights/application/queries"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	"assembly/contexts/assembly-governance/voting-rights/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	QuorumCache *queries.QuorumCache

	// Set by NewInMemoryModule only.
	Store         *memory.Store
	Notifications *notifications.Log
	Artifacts     *storage.Memory
}

type Dependencies struct {
	Repository     ports.Repository
	Notifications  ports.NotificationGateway
	Templates      ports.TemplateRenderer
	Artifacts      ports.ArtifactStorage
	OTP            ports.OTPGenerator
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	Metrics        ports.Metrics
	OTPTTL         time.Duration
	MaxOTPAttempts int
	QuorumCacheTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	identities := commands.IdentityResolver{
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	ledger := commands.RepresentationLedger{
		Identities: identities,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	quorumCache := queries.NewQuorumCache(deps.QuorumCacheTTL, deps.Clock)

	return Module{
		Handler: httpadapter.Handler{
			Delegations: commands.DelegationUseCase{
				Repo:          deps.Repository,
				Ledger:        ledger,
				Identities:    identities,
				Notifications: deps.Notifications,
				Templates:     deps.Templates,
				Artifacts:     deps.Artifacts,
				OTP:           deps.OTP,
				Clock:         deps.Clock,
				IDGen:         deps.IDGen,
				Metrics:       deps.Metrics,
				OTPTTL:        deps.OTPTTL,
				MaxAttempts:   deps.MaxOTPAttempts,
				Logger:        deps.Logger,
			},
			Ballots: commands.BallotUseCase{
				Repo:    deps.Repository,
				Clock:   deps.Clock,
				IDGen:   deps.IDGen,
				Metrics: deps.Metrics,
				Logger:  deps.Logger,
			},
			VoteAdmin: commands.VoteAdminUseCase{
				Repo:   deps.Repository,
				Clock:  deps.Clock,
				IDGen:  deps.IDGen,
				Logger: deps.Logger,
			},
			Attendance: commands.AttendanceUseCase{
				Repo:   deps.Repository,
				Quorum: quorumCache,
				Clock:  deps.Clock,
				IDGen:  deps.IDGen,
				Logger: deps.Logger,
			},
			Quorum: queries.QuorumUseCase{
				Units:      deps.Repository,
				Attendance: deps.Repository,
				Cache:      quorumCache,
				Metrics:    deps.Metrics,
				Logger:     deps.Logger,
			},
			Tally: queries.TallyUseCase{
				Votes:  deps.Repository,
				Logger: deps.Logger,
			},
			Representation: queries.RepresentationUseCase{
				Units:   deps.Repository,
				Proxies: deps.Repository,
				Logger:  deps.Logger,
			},
			Logger: deps.Logger,
		},
		QuorumCache: quorumCache,
	}
}

// NewInMemoryModule wires the module for tests and single-node dev mode:
// notifications are logged and artifacts are kept in process.
func NewInMemoryModule(units []entities.Unit, identities []entities.Identity, logger *slog.Logger) Module {
	store := memory.NewStore(units, identities)
	gateway := notifications.NewLog(logger)
	artifacts := storage.NewMemory()
	module := NewModule(Dependencies{
		Repository:     store,
		Notifications:  gateway,
		Templates:      templates.MustRenderer(),
		Artifacts:      artifacts,
		OTP:            otp.Generator{},
		Clock:          store,
		IDGen:          store,
		OTPTTL:         30 * time.Minute,
		MaxOTPAttempts: 5,
		QuorumCacheTTL: 5 * time.Second,
		Logger:         logger,
	})
	module.Store = store
	module.Notifications = gateway
	module.Artifacts = artifacts
	return module
}
