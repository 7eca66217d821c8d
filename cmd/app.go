package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/trip-planner/internal/agent"
	"github.com/sells-group/trip-planner/internal/config"
	"github.com/sells-group/trip-planner/internal/enrich"
	"github.com/sells-group/trip-planner/internal/store"
	"github.com/sells-group/trip-planner/internal/trust"
	"github.com/sells-group/trip-planner/pkg/llm"
	"github.com/sells-group/trip-planner/pkg/websearch"
)

// appEnv bundles the shared dependencies of the serve and chat commands.
type appEnv struct {
	cfg        *config.Config
	store      store.Store
	client     llm.Client
	fastClient llm.Client
	search     websearch.Client
}

// initApp wires the store, LLM clients, and search client from config.
func initApp(ctx context.Context, c *config.Config) (*appEnv, error) {
	st, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	client := llm.NewAnthropic(llm.AnthropicConfig{
		APIKey:              c.LLM.Key,
		Model:               c.LLM.Model,
		MaxTokens:           int64(c.LLM.MaxTokens),
		Temperature:         c.LLM.Temperature,
		SupportsToolCalling: c.LLM.SupportsToolCalling,
	})

	fastClient := client
	if c.LLM.FastModel != "" && c.LLM.FastModel != c.LLM.Model {
		fastClient = llm.NewAnthropic(llm.AnthropicConfig{
			APIKey:              c.LLM.Key,
			Model:               c.LLM.FastModel,
			MaxTokens:           int64(c.LLM.MaxTokens),
			Temperature:         c.LLM.Temperature,
			SupportsToolCalling: c.LLM.SupportsToolCalling,
		})
	}

	var search websearch.Client
	if c.Search.Key != "" {
		search = websearch.NewClient(c.Search.Key,
			websearch.WithBaseURL(c.Search.BaseURL),
			websearch.WithRateLimit(c.Search.RatePerSec),
			websearch.WithCacheTTL(time.Duration(c.Search.CacheTTLMins)*time.Minute),
		)
	} else {
		zap.L().Warn("search.key not set, running without web search")
	}

	return &appEnv{
		cfg:        c,
		store:      st,
		client:     client,
		fastClient: fastClient,
		search:     search,
	}, nil
}

func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, nil)
	case "sqlite":
		return store.NewSQLite(c.Store.SQLitePath)
	default:
		return nil, eris.Errorf("unknown store driver %q", c.Store.Driver)
	}
}

// newAgent builds a planning agent with fresh background enrichment, for one
// conversation.
func (env *appEnv) newAgent(vibe string, onSearch, onStatus func(string)) *agent.Agent {
	var scheduler *enrich.Scheduler
	if env.search != nil {
		scheduler = enrich.NewScheduler(env.search,
			enrichConfig(env.cfg.Enrich, env.cfg.Trust.BudgetTolerancePct), nil)
	}

	return agent.New(agent.Options{
		Client:               env.client,
		FastClient:           env.fastClient,
		Search:               env.search,
		Scheduler:            scheduler,
		Trust:                trustProcessor(env.cfg.Trust),
		MaxExtractionRetries: env.cfg.Agent.MaxExtractionRetries,
		StructureWaitCeil:    time.Duration(env.cfg.Agent.StructureWaitCeilSecs) * time.Second,
		OnSearch:             onSearch,
		OnStatus:             onStatus,
		Vibe:                 vibe,
	})
}

func (env *appEnv) Close() {
	if err := env.store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

func enrichConfig(c config.EnrichConfig, budgetTolerance float64) enrich.Config {
	cfg := enrich.DefaultConfig()
	if budgetTolerance > 0 {
		cfg.BudgetTolerance = budgetTolerance
	}
	if c.ImageTimeoutSecs > 0 {
		cfg.ImageTimeout = time.Duration(c.ImageTimeoutSecs) * time.Second
	}
	if c.FlightTimeoutSecs > 0 {
		cfg.FlightTimeout = time.Duration(c.FlightTimeoutSecs) * time.Second
	}
	if c.HotelTimeoutSecs > 0 {
		cfg.HotelTimeout = time.Duration(c.HotelTimeoutSecs) * time.Second
	}
	if c.TrainTimeoutSecs > 0 {
		cfg.TrainTimeout = time.Duration(c.TrainTimeoutSecs) * time.Second
	}
	if c.MaxResults > 0 {
		cfg.MaxResults = c.MaxResults
	}
	return cfg
}

func trustProcessor(c config.TrustConfig) *trust.Processor {
	weights := trust.DefaultWeights()
	if c.SourceWeight > 0 {
		weights.SourceCoverage = c.SourceWeight
	}
	if c.CostWeight > 0 {
		weights.CostCompleteness = c.CostWeight
	}
	if c.SpecificityWeight > 0 {
		weights.ItinerarySpecificity = c.SpecificityWeight
	}
	if c.MediumThreshold > 0 {
		weights.MediumThreshold = c.MediumThreshold
	}
	if c.HighThreshold > 0 {
		weights.HighThreshold = c.HighThreshold
	}
	return trust.NewProcessor(c.MaxSources, weights)
}
