package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"readmegen/internal/config"
	"readmegen/internal/gateway/handler"
	"readmegen/internal/gateway/server"
	"readmegen/internal/gateway/service/generate"
	"readmegen/internal/llm"
	"readmegen/internal/llmclient"
	"readmegen/internal/readme"
	"readmegen/internal/repo"
	"readmegen/internal/scan"
	"readmegen/internal/trace"
)

type App struct {
	server *server.Server
	llm    llmclient.Client
	stores *gatewayStores
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := log.Default()

	base, err := llmclient.New(ctx, cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.APIKey, cfg.LLM.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to init llm client: %w", err)
	}
	rankClient, synthClient, limited := buildClients(base, cfg.LLM, logger)

	stores, err := initStores(cfg)
	if err != nil {
		_ = limited.Close()
		return nil, err
	}

	gen := &readme.Generator{
		Filter:      scan.NewFilter(cfg.Ignore, logger),
		Client:      rankClient,
		SynthClient: synthClient,
		Opts: readme.Options{
			TokenCeiling: cfg.TokenCeiling,
			Selection:    cfg.Selection,
			Layout:       cfg.Layout,
			Log:          logger,
		},
	}
	logs := trace.NewLogger(cfg.RunLogDir)
	svc := generate.New(
		&repo.Cloner{Root: cfg.CloneRoot, Log: logger},
		gen,
		generate.WithLedger(stores.ledger),
		generate.WithArchive(stores.archive),
		generate.WithObserver(logs),
		generate.WithDefaultBranch(cfg.CloneBranch),
		generate.WithTimeout(cfg.RequestTimeout),
	)

	mux := server.NewMux(
		handler.NewReadmeHandler(svc),
		handler.NewTraceHandler(logs, stores.ledger, stores.archive),
	)
	log.Printf("llm provider: %s (retries=%d)", base.Name(), cfg.LLM.RetryAttempts)
	return &App{
		server: server.New(cfg.Port, mux),
		llm:    limited,
		stores: stores,
	}, nil
}

// buildClients returns the ranking/counting client (retried, count-cached),
// the synthesis client (single attempt) and the shared rate-limited base
// that owns the provider connection.
func buildClients(base llmclient.Client, cfg config.LLMConfig, logger *log.Logger) (rank, synth, shared llmclient.Client) {
	shared = llm.Wrap(base, llm.RateLimitFromEnv("LLM", strings.ToUpper(cfg.Provider)))
	backoff := llm.Backoff{Base: cfg.RetryBackoff, Max: 8 * cfg.RetryBackoff, Jitter: cfg.RetryJitter}
	rank = llm.Wrap(shared,
		llm.WithHooks(),
		llm.CountCache(1024, 10*time.Minute),
		llm.Retry(cfg.RetryAttempts, backoff),
		llm.WithLogging(logger),
	)
	synth = llm.Wrap(shared,
		llm.WithHooks(),
		llm.WithLogging(logger),
	)
	return rank, synth, shared
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.llm.Close(); cerr != nil {
		log.Printf("llm close: %v", cerr)
	}
	a.stores.close()
	return err
}
