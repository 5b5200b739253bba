package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/provider-verify/internal/consensus"
	"github.com/sells-group/provider-verify/internal/credibility"
	"github.com/sells-group/provider-verify/internal/drift"
	"github.com/sells-group/provider-verify/internal/resolver"
	"github.com/sells-group/provider-verify/internal/store"
	"github.com/sells-group/provider-verify/internal/verify"
)

// engineEnv bundles the wired engine components commands need.
type engineEnv struct {
	Store       store.Store
	Credibility *credibility.Store
	Service     *verify.Service
	Tracker     *drift.Tracker
	Learned     *resolver.Resolver
}

func (e *engineEnv) Close() {
	_ = e.Store.Close()
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.Path
		if dsn == "" {
			dsn = "provider-verify.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEngine opens the store, runs migrations, and wires the consensus
// resolver, drift tracker, learned resolver, and service around it.
func initEngine(ctx context.Context) (*engineEnv, error) {
	if err := consensus.ValidateConfig(cfg.Verify); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	cred := credibility.New(st, cfg.Credibility)
	res := consensus.NewResolver(cred, cfg.Verify)
	tracker := drift.NewTracker(st, cfg.Drift)
	svc := verify.New(st, cred, res, tracker, cfg.Verify)

	scorer, err := resolver.LoadScorer(cfg.Resolver.ModelPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	learned := resolver.NewResolver(cred, scorer, cfg.Resolver)

	return &engineEnv{
		Store:       st,
		Credibility: cred,
		Service:     svc,
		Tracker:     tracker,
		Learned:     learned,
	}, nil
}
