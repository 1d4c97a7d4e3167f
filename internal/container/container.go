// Package container wires every collaborator into a dependency injection
// graph using uber's dig: one container.Provide call per constructor,
// resolved lazily by the final handler/router/server invocation.
package container

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	esv7 "github.com/elastic/go-elasticsearch/v7"
	esv8 "github.com/elastic/go-elasticsearch/v8"
	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/dig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nyx-moment/moment/internal/adjust"
	"github.com/nyx-moment/moment/internal/analytics"
	"github.com/nyx-moment/moment/internal/analytics/export"
	"github.com/nyx-moment/moment/internal/cachekv"
	"github.com/nyx-moment/moment/internal/catalog"
	"github.com/nyx-moment/moment/internal/config"
	"github.com/nyx-moment/moment/internal/embedcache"
	"github.com/nyx-moment/moment/internal/embedprovider"
	"github.com/nyx-moment/moment/internal/enrich"
	"github.com/nyx-moment/moment/internal/enrich/assets"
	"github.com/nyx-moment/moment/internal/enrich/catalogdetail"
	"github.com/nyx-moment/moment/internal/flowplanner"
	"github.com/nyx-moment/moment/internal/handler"
	"github.com/nyx-moment/moment/internal/llmfallback"
	"github.com/nyx-moment/moment/internal/models/utils/ollama"
	"github.com/nyx-moment/moment/internal/orchestrator"
	"github.com/nyx-moment/moment/internal/prefmap"
	"github.com/nyx-moment/moment/internal/refine"
	"github.com/nyx-moment/moment/internal/resultcache"
	"github.com/nyx-moment/moment/internal/retrieval"
	"github.com/nyx-moment/moment/internal/retrieval/catalogsearch"
	"github.com/nyx-moment/moment/internal/retrieval/memory"
	"github.com/nyx-moment/moment/internal/retrieval/pgvectorstore"
	"github.com/nyx-moment/moment/internal/router"
	"github.com/nyx-moment/moment/internal/session"
	"github.com/nyx-moment/moment/internal/surprise"
	"github.com/nyx-moment/moment/internal/surprise/graph"
	"github.com/nyx-moment/moment/internal/tracing"
	"github.com/nyx-moment/moment/internal/validator"
)

// BuildContainer registers every collaborator the recommendation flow
// needs against the base dig container and returns it unchanged for the
// caller to Invoke.
func BuildContainer(container *dig.Container) *dig.Container {
	must(container.Provide(NewResourceCleaner))

	// Core infrastructure.
	must(container.Provide(config.LoadConfig))
	must(container.Provide(initTracer))
	must(container.Provide(initDB))
	must(container.Provide(initEnrichPool))
	must(container.Invoke(registerPoolCleanup))

	// Session and catalog stores.
	must(container.Provide(initKVStores))
	must(container.Provide(initSessionStore))
	must(container.Provide(initCatalogStore))
	must(container.Provide(flowplanner.NewPlanner))
	must(container.Provide(prefmap.NewMapper))

	// Embedding provider and cache.
	must(container.Provide(initOllamaService))
	must(container.Provide(initEmbeddingProvider))
	must(container.Provide(initEmbedCache))

	// Retrieval tiers.
	must(container.Provide(initNeo4jDriver))
	must(container.Provide(initRetrieverTiers))
	must(container.Provide(initGenerator))
	must(container.Provide(initResultCache))

	// Enrichment.
	must(container.Provide(initDetailFetcher))
	must(container.Provide(initAssetMirror))
	must(container.Provide(initEnricher))

	// Surprise, validation, refinement, quick-adjust.
	must(container.Provide(initAdjacency))
	must(container.Provide(initSurpriseEngine))
	must(container.Provide(validator.New))
	must(container.Provide(refine.New))
	must(container.Provide(adjust.New))

	// Analytics: event writer plus the background batch exporter.
	must(container.Invoke(initAnalytics))
	must(container.Provide(initAnalyticsWriter))

	must(container.Provide(initRand))

	// Orchestrator, handler, router.
	must(container.Provide(initOrchestrator))
	must(container.Provide(handler.New))
	must(container.Provide(router.NewRouter))

	return container
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func initTracer() (*tracing.Tracer, error) {
	return tracing.InitTracer()
}

// initDB opens the single shared Postgres connection the Question Catalog,
// the vector Retrieval Client, and the per-item detail fetcher all read
// from. RetrievalConfig.Postgres and CatalogConfig.Postgres are configured
// independently but name the same database in every real deployment, so
// rather than open two pools against one database this resolves to one
// connection, preferring the retrieval DSN since that pool sees the
// request-path query volume. A nil db is valid: the catalog store falls
// back to its built-in question set, and the vector retriever becomes a
// no-op tier skipped by the orchestrator's fallback chain.
func initDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Retrieval.Postgres.DSN
	if dsn == "" {
		dsn = cfg.Catalog.Postgres.DSN
	}
	if dsn == "" {
		return nil, nil
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("container: open postgres: %w", err)
	}
	return db, nil
}

func initEnrichPool(cfg *config.Config) (*ants.Pool, error) {
	size := cfg.Enrichment.Concurrency
	if size <= 0 {
		size = 8
	}
	return ants.NewPool(size, ants.WithPreAlloc(true))
}

func registerPoolCleanup(pool *ants.Pool, cleaner *ResourceCleaner) {
	cleaner.RegisterWithName("EnrichPool", func() error {
		pool.Release()
		return nil
	})
}

// kvStores names the two independently-configured cachekv.Store instances
// so dig can tell them apart: SessionConfig and CacheConfig select their
// own backend/TTL pairs, but both produce the same cachekv.Store type.
type kvStores struct {
	dig.Out

	Session cachekv.Store `name:"session"`
	Cache   cachekv.Store `name:"cache"`
}

func initKVStores(cfg *config.Config) (kvStores, error) {
	sessionKV, err := buildKV(cfg.Session.Backend, cfg.Session.Redis, cfg.Session.Prefix, cfg.Session.TTL)
	if err != nil {
		return kvStores{}, fmt.Errorf("container: session store: %w", err)
	}
	cacheKV, err := buildKV(cfg.Cache.Backend, cfg.Cache.Redis, "cache:", 0)
	if err != nil {
		return kvStores{}, fmt.Errorf("container: cache store: %w", err)
	}
	return kvStores{Session: sessionKV, Cache: cacheKV}, nil
}

func buildKV(backend string, redisCfg config.RedisConfig, prefix string, ttl time.Duration) (cachekv.Store, error) {
	if strings.ToLower(backend) == "redis" {
		return cachekv.NewRedisStore(redisCfg.Address, redisCfg.Password, redisCfg.DB, prefix, ttl)
	}
	return cachekv.NewMemoryStore(ttl), nil
}

type sessionStoreParams struct {
	dig.In

	KV  cachekv.Store `name:"session"`
	Cfg *config.Config
}

func initSessionStore(p sessionStoreParams) *session.Store {
	return session.NewStore(p.KV, p.Cfg.Session.TTL)
}

func initCatalogStore(db *gorm.DB, cfg *config.Config) *catalog.Store {
	return catalog.NewStore(db, cfg.Catalog.WarmTTL)
}

func initOllamaService() (*ollama.OllamaService, error) {
	return ollama.GetOllamaService()
}

// initEmbeddingProvider picks the embedding collaborator named in
// ModelConfig by Type == "embedding", defaulting to Ollama's
// nomic-embed-text when the config omits one entirely.
func initEmbeddingProvider(cfg *config.Config, svc *ollama.OllamaService) embedprovider.Provider {
	model := findModel(cfg.Models, "embedding")
	if model == nil {
		return embedprovider.NewOllamaProvider(svc, "nomic-embed-text", 768)
	}
	if strings.ToLower(model.Source) == "openai" {
		return embedprovider.NewOpenAIProvider(model.APIKey, model.BaseURL, model.ModelName, embeddingDimensions(model))
	}
	return embedprovider.NewOllamaProvider(svc, model.ModelName, embeddingDimensions(model))
}

func embeddingDimensions(model *config.ModelConfig) int {
	if raw, ok := model.Parameters["dimensions"]; ok {
		if f, ok := raw.(float64); ok {
			return int(f)
		}
	}
	return 768
}

func findModel(models []config.ModelConfig, kind string) *config.ModelConfig {
	for i := range models {
		if models[i].Type == kind {
			return &models[i]
		}
	}
	return nil
}

type embedCacheParams struct {
	dig.In

	KV       cachekv.Store `name:"cache"`
	Provider embedprovider.Provider
}

func initEmbedCache(p embedCacheParams) *embedcache.Cache {
	return embedcache.New(p.KV, p.Provider)
}

// initNeo4jDriver dials the genre-adjacency graph's backing store. Absent
// configuration yields a nil driver, which graph.Neo4jBackend treats as
// "not supported" rather than an error, so Surprise falls back to its
// static adjacency table.
func initNeo4jDriver(cfg *config.Config) (neo4j.Driver, error) {
	if cfg.Surprise.Neo4j.URI == "" {
		return nil, nil
	}
	driver, err := neo4j.NewDriver(cfg.Surprise.Neo4j.URI, neo4j.BasicAuth(cfg.Surprise.Neo4j.Username, cfg.Surprise.Neo4j.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("container: dial neo4j: %w", err)
	}
	return driver, nil
}

// retrieverTiers names the three retrieval.Retriever implementations the
// orchestrator walks in order, so dig can resolve all three despite their
// shared interface type.
type retrieverTiers struct {
	dig.Out

	Primary  retrieval.Retriever `name:"primary"`
	Fallback retrieval.Retriever `name:"fallback"`
	Memory   retrieval.Retriever `name:"memory"`
}

func initRetrieverTiers(db *gorm.DB, cfg *config.Config) (retrieverTiers, error) {
	var primary retrieval.Retriever
	if db != nil {
		primary = pgvectorstore.NewStore(db)
	}

	fallback, err := buildFallbackRetriever(cfg)
	if err != nil {
		return retrieverTiers{}, err
	}

	return retrieverTiers{Primary: primary, Fallback: fallback, Memory: memory.NewStore()}, nil
}

// buildFallbackRetriever selects the v7 or v8 Elasticsearch client
// generation per config via a dual-client registry. A nil retriever (no
// addresses configured) is a valid, intentionally skipped tier.
func buildFallbackRetriever(cfg *config.Config) (retrieval.Retriever, error) {
	esCfg := cfg.Retrieval.Elasticsearch
	if len(esCfg.Addresses) == 0 {
		return nil, nil
	}
	if strings.ToLower(esCfg.APIVersion) == "v8" {
		client, err := esv8.NewClient(esv8.Config{Addresses: esCfg.Addresses})
		if err != nil {
			return nil, fmt.Errorf("container: dial elasticsearch v8: %w", err)
		}
		return catalogsearch.NewV8Store(client, esCfg.Index), nil
	}
	client, err := esv7.NewClient(esv7.Config{Addresses: esCfg.Addresses})
	if err != nil {
		return nil, fmt.Errorf("container: dial elasticsearch v7: %w", err)
	}
	return catalogsearch.NewV7Store(client, esCfg.Index), nil
}

// initGenerator wires the last-resort structured generator (D5), selected
// by the "chat" ModelConfig entry. A nil generator is valid: the
// orchestrator skips the generation step entirely when it's absent.
func initGenerator(cfg *config.Config, svc *ollama.OllamaService) llmfallback.Generator {
	model := findModel(cfg.Models, "chat")
	if model == nil {
		return nil
	}
	if strings.ToLower(model.Source) == "openai" {
		return llmfallback.NewRemoteGenerator(model.APIKey, model.BaseURL, model.ModelName)
	}
	return llmfallback.NewOllamaGenerator(svc, model.ModelName)
}

type resultCacheParams struct {
	dig.In

	KV  cachekv.Store `name:"cache"`
	Cfg *config.Config
}

func initResultCache(p resultCacheParams) *resultcache.Cache {
	return resultcache.New(p.KV, p.Cfg.Cache.ResultTTL)
}

func initDetailFetcher(db *gorm.DB) enrich.DetailFetcher {
	return catalogdetail.NewStore(db)
}

// initAssetMirror wires the best-effort poster/backdrop mirror over
// MinIO. A nil mirror (no endpoint configured) is accepted by enrich.New,
// which treats a down or absent mirror as "serve the upstream URL
// directly" rather than an error.
type assetMirrorParams struct {
	dig.In

	Cfg *config.Config
	KV  cachekv.Store `name:"cache"`
}

func initAssetMirror(p assetMirrorParams) (*assets.Mirror, error) {
	if p.Cfg.Enrichment.MinIO.Endpoint == "" {
		return nil, nil
	}
	publicBase := "https://" + p.Cfg.Enrichment.MinIO.Endpoint + "/" + p.Cfg.Enrichment.MinIO.Bucket
	return assets.New(p.Cfg.Enrichment.MinIO, publicBase, p.KV)
}

type enricherParams struct {
	dig.In

	Fetcher enrich.DetailFetcher
	Mirror  *assets.Mirror
	KV      cachekv.Store `name:"cache"`
	Cfg     *config.Config
	Pool    *ants.Pool
}

func initEnricher(p enricherParams) *enrich.Enricher {
	return enrich.New(p.Fetcher, p.Mirror, p.KV, p.Cfg.Cache.EnrichmentTTL, p.Pool)
}

// initAdjacency chains the Neo4j-backed genre graph ahead of the
// dependency-free static table, so a down or unconfigured graph store
// degrades the Surprise Engine's adjacency lookups rather than failing
// them.
func initAdjacency(driver neo4j.Driver) graph.AdjacencyLookup {
	return graph.Chain(graph.NewNeo4jBackend(driver), graph.NewStaticBackend())
}

func initSurpriseEngine(adjacency graph.AdjacencyLookup, rng *rand.Rand) *surprise.Engine {
	return surprise.New(adjacency, rng)
}

func initRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// initAnalytics starts the asynq task server and registers the parquet
// batch exporter as its event sink, so every enqueued AnalyticsEvent
// eventually lands on disk without ever touching the request path.
func initAnalytics(cfg *config.Config, cleaner *ResourceCleaner) error {
	exportDir := cfg.Analytics.ExportDir
	if exportDir == "" {
		exportDir = "./data/analytics"
	}
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return fmt.Errorf("container: create analytics export dir: %w", err)
	}

	exporter := export.NewBatchExporter(exportDir, cfg.Analytics.ExportEvery)
	analytics.RegisterHandlerFunc(analytics.TaskTypeEvent, analytics.HandlerFunc(exporter))

	if err := analytics.InitAsynq(cfg.Analytics); err != nil {
		return fmt.Errorf("container: init analytics queue: %w", err)
	}

	go exporter.Run(context.Background())
	cleaner.RegisterWithName("AnalyticsExporter", func() error {
		exporter.Stop()
		return nil
	})
	return nil
}

func initAnalyticsWriter() *analytics.Writer {
	return analytics.NewWriter("low")
}

type orchestratorParams struct {
	dig.In

	Sessions  *session.Store
	Mapper    *prefmap.Mapper
	Embedding *embedcache.Cache
	Primary   retrieval.Retriever `name:"primary"`
	Fallback  retrieval.Retriever `name:"fallback"`
	Memory    retrieval.Retriever `name:"memory"`
	Generator llmfallback.Generator
	Results   *resultcache.Cache
	Enricher  *enrich.Enricher
	Surprise  *surprise.Engine
	Validator *validator.Validator
	Refine    *refine.Engine
	Adjust    *adjust.Engine
	Writer    *analytics.Writer
	Rng       *rand.Rand
}

func initOrchestrator(p orchestratorParams) *orchestrator.Orchestrator {
	return orchestrator.New(
		p.Sessions, p.Mapper, p.Embedding, p.Primary, p.Fallback, p.Memory,
		p.Generator, p.Results, p.Enricher, p.Surprise, p.Validator,
		p.Refine, p.Adjust, p.Writer, p.Rng,
	)
}
