package setup

import (
	"time"

	"github.com/hushcampus-dev/hushcampus/internal/config"
	"github.com/hushcampus-dev/hushcampus/internal/domain"
	"github.com/hushcampus-dev/hushcampus/internal/handler"
	"github.com/hushcampus-dev/hushcampus/internal/jwt"
	"github.com/hushcampus-dev/hushcampus/internal/middleware"
	"github.com/hushcampus-dev/hushcampus/internal/middleware/metrics"
	"github.com/hushcampus-dev/hushcampus/internal/service"
	"github.com/hushcampus-dev/hushcampus/internal/storage/kv"
	"github.com/hushcampus-dev/hushcampus/internal/utils"
)

// Dependencies holds every initialized component of the engagement core.
type Dependencies struct {
	Storage        *kv.Store
	Ledger         *service.Ledger
	Scheduler      *service.Scheduler
	Store          *service.Store
	ModLog         *service.ModerationLog
	Sweeper        *service.ArchivalSweeper
	Handler        *handler.Handler
	AuthMiddleware *middleware.Auth
	Jwt            jwt.JwtService
}

// SetupDependencies wires the engine: storage, ledger, scheduler, store,
// moderation log and the intent-layer handler, then rehydrates everything
// from the persisted snapshots.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := kv.Open(cfg.Public.DBPath)
	if err != nil {
		return nil, err
	}

	ledger := service.NewLedger(&cfg.Public, storage, service.AlwaysSettle{}, nil)
	ledger.OnBalanceChanged(func(snap domain.BalanceSnapshot) {
		metrics.SetLedgerBalance(float64(snap.Balance), float64(snap.Pending))
	})
	scheduler := service.NewScheduler(nil, nil)
	store := service.NewStore(&cfg.Public, storage, ledger, scheduler, nil)
	scheduler.SetTarget(store)

	modlog := service.NewModerationLog(&cfg.Public, storage, store, ledger, nil)
	sweeper := service.NewArchivalSweeper(store,
		time.Duration(cfg.Public.ArchiveAfterDays)*24*time.Hour, nil)

	if err := ledger.Load(); err != nil {
		return nil, err
	}
	if err := modlog.Load(); err != nil {
		return nil, err
	}
	// loads posts and re-arms timers; elapsed deadlines delete synchronously
	if err := store.Load(); err != nil {
		return nil, err
	}

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())
	authMw := middleware.NewAuth(jwtService)
	h := handler.New(store, ledger, modlog, cfg, &utils.ContentValidator{})

	return &Dependencies{
		Storage:        storage,
		Ledger:         ledger,
		Scheduler:      scheduler,
		Store:          store,
		ModLog:         modlog,
		Sweeper:        sweeper,
		Handler:        h,
		AuthMiddleware: authMw,
		Jwt:            jwtService,
	}, nil
}
