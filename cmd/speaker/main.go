package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/pitabwire/frame/workerpool"
	"github.com/redis/go-redis/v9"

	ntconfig "github.com/odiadev/naijatts/config"
	"github.com/odiadev/naijatts/internal/httputil"
	"github.com/odiadev/naijatts/internal/metrics"
	"github.com/odiadev/naijatts/internal/speech/cache"
	"github.com/odiadev/naijatts/internal/speech/chain"
	speechhandler "github.com/odiadev/naijatts/internal/speech/handler"
	"github.com/odiadev/naijatts/internal/speech/voices"
	"github.com/odiadev/naijatts/pkg/apikey"
	keyapi "github.com/odiadev/naijatts/pkg/apikey/api"
	"github.com/odiadev/naijatts/pkg/events"

	// Register TTS backends via init().
	_ "github.com/odiadev/naijatts/internal/speech/backends/elevenlabs"
	_ "github.com/odiadev/naijatts/internal/speech/backends/google"
	_ "github.com/odiadev/naijatts/internal/speech/backends/openai"
	_ "github.com/odiadev/naijatts/internal/speech/backends/synthetic"
	_ "github.com/odiadev/naijatts/internal/speech/backends/upstream"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[ntconfig.SpeakerConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	serviceOpts := []frame.Option{
		frame.WithConfig(&cfg),
		frame.WithName("naijatts-speaker"),
		frame.WithRegisterPublisher(eventRef, eventURL),
		frame.WithWorkerPoolOptions(
			workerpool.WithPoolCount(cfg.WorkerPoolCount),
			workerpool.WithSinglePoolCapacity(cfg.WorkerPoolCapacity),
		),
	}
	if cfg.DatastoreEnabled {
		serviceOpts = append(serviceOpts, frame.WithDatastore())
	}

	ctx, srv := frame.NewService(serviceOpts...)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	pub := events.NewPublisher(srv.QueueManager(), "speaker", eventRef)
	m := metrics.New(cfg.RuntimeMetrics)

	store, err := newStore(ctx, &cfg)
	if err != nil {
		log.Fatalf("setting up audio cache: %v", err)
	}

	voiceTable := voices.NewBuiltinTable()
	if cfg.VoicesFile != "" {
		if err := voices.LoadInto(voiceTable, cfg.VoicesFile); err != nil {
			log.Fatalf("loading voices: %v", err)
		}
		if cfg.VoicesWatch {
			go func() {
				if err := voices.WatchAndReload(ctx, voiceTable, cfg.VoicesFile); err != nil {
					slog.ErrorContext(ctx, "voice table watcher stopped", slog.String("error", err.Error()))
				}
			}()
		}
	}

	svc, err := chain.Build(ctx, cfg.ChainConfig(), cfg.Providers(), cfg.BackendConfig(),
		chain.WithVoices(voiceTable),
		chain.WithStore(store),
		chain.WithMetrics(m),
		chain.WithPublisher(pub, pool),
	)
	if err != nil {
		log.Fatalf("building provider chain: %v", err)
	}
	defer svc.Close()

	slog.InfoContext(ctx, "provider chain ready",
		slog.Any("providers", svc.Providers()),
		slog.Any("availability", svc.Availability()),
	)

	mux := http.NewServeMux()

	verifiers := apikey.Verifiers{apikey.NewStaticVerifier(cfg.APIKeys(), cfg.StaticRatePerMin)}
	if cfg.DatastoreEnabled && cfg.KeyPepper != "" {
		signer, err := apikey.NewSigner(cfg.KeyPepper)
		if err != nil {
			log.Fatalf("creating key signer: %v", err)
		}
		keyRepo := apikey.NewRepository(
			srv.DatastoreManager().GetPool(ctx, "__default__pool_name__"),
		)
		if err := keyRepo.Migrate(ctx); err != nil {
			log.Fatalf("migrating api keys: %v", err)
		}
		verifiers = append(verifiers, apikey.NewStoreVerifier(keyRepo, signer))
		keyapi.NewHandler(keyRepo, signer, pub, cfg.AdminToken).RegisterRoutes(mux)
	}

	speechhandler.NewHandler(svc, speechhandler.Options{
		ServiceName: "naijatts-speaker",
		Verifier:    verifiers,
		Limiter:     apikey.NewLimiter(),
		Metrics:     m,
		DefaultKey:  cfg.DefaultAPIKey,
		FailOpen:    cfg.AuthFailOpen,
	}).RegisterRoutes(mux)

	handler := httputil.Chain(mux, httputil.RequestID, httputil.AccessLog, httputil.Recover)
	srv.Init(ctx, frame.WithHTTPHandler(httputil.H2CHandler(handler)))

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}

// newStore returns a Redis cache when REDIS_URL is set, else a disk cache.
func newStore(ctx context.Context, cfg *ntconfig.SpeakerConfig) (cache.Store, error) {
	if cfg.RedisURL == "" {
		return cache.NewDiskStore(cfg.CacheDir)
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		slog.WarnContext(ctx, "redis not reachable at startup", slog.String("error", err.Error()))
	}
	return cache.NewRedisStore(client, cache.WithPrefix(cfg.RedisPrefix)), nil
}
