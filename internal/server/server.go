package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/victornm/grammarquiz/internal/api"
	"github.com/victornm/grammarquiz/internal/bank"
	"github.com/victornm/grammarquiz/internal/catalog"
	"github.com/victornm/grammarquiz/internal/event"
	"github.com/victornm/grammarquiz/internal/quiz"
	"github.com/victornm/grammarquiz/internal/report"
	"github.com/victornm/grammarquiz/internal/score"
	"github.com/victornm/grammarquiz/internal/session"
	"github.com/victornm/grammarquiz/internal/stats"
	"github.com/victornm/grammarquiz/internal/telemetry"
)

type RedisConfig struct {
	Addrs  []string
	Pass   string
	Prefix string
}

type Config struct {
	HTTP struct {
		Port int32
	}

	GRPC struct {
		Port int32
	}

	// Empty address lists keep sessions in memory and disable pubsub, locking
	// across instances and topic stats.
	Redis struct {
		Sessions RedisConfig
		Pubsub   RedisConfig
	}

	// An empty address writes reports to the spreadsheet instead.
	Postgres struct {
		Report struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Data struct {
		BankPath    string
		CatalogPath string
	}

	ShareBaseURL string

	Quiz struct {
		TopicCount int
		PerTopic   int
	}

	Report struct {
		SpreadsheetPath string
		LockWait        time.Duration
	}
}

// DefaultConfig returns the values used for keys missing from the config file.
func DefaultConfig() Config {
	var c Config
	c.HTTP.Port = 8080
	c.GRPC.Port = 9090
	c.Redis.Sessions.Prefix = "grammarquiz"
	c.Redis.Pubsub.Prefix = "grammarquiz"
	c.Data.BankPath = "data/questions.json"
	c.Data.CatalogPath = "data/grammar_resources.json"
	c.Quiz.TopicCount = quiz.DefaultTopicCount
	c.Quiz.PerTopic = quiz.DefaultPerTopic
	c.Report.SpreadsheetPath = "reports.xlsx"
	c.Report.LockWait = report.DefaultLockWait
	return c
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			sessions redis.UniversalClient
			pubsub   redis.UniversalClient
		}

		postgres struct {
			report *pgxpool.Pool
		}
	}

	data struct {
		bank    *bank.Bank
		catalog *catalog.Catalog
	}

	service struct {
		quiz   *quiz.Service
		score  *score.Service
		report *report.Service
		stats  *stats.Service
	}

	registry *prometheus.Registry
	health   *health.Server

	http *http.Server
	grpc *grpc.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	// Runtime collectors and the Redis histogram live in the default registry.
	s.registry = prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(s.registry)

	s.eb = event.NewBus(event.WithFailureHandler(metrics.HandlerFailed))
	metrics.Subscribe(s.eb)

	if err := s.initData(); err != nil {
		return nil, fmt.Errorf("server: init data: %w", err)
	}

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initService(); err != nil {
		return nil, fmt.Errorf("server: init service: %w", err)
	}

	s.initAPI()
	return s, nil
}

func (s *Server) initData() (err error) {
	s.data.bank, err = bank.Load(s.c.Data.BankPath)
	if err != nil {
		return fmt.Errorf("question bank: %w", err)
	}

	s.data.catalog, err = catalog.Load(s.c.Data.CatalogPath)
	if err != nil {
		return fmt.Errorf("resource catalog: %w", err)
	}

	slog.Info("server: data loaded",
		"questions", s.data.bank.Len(),
		"topics", len(s.data.bank.Topics()),
		"resources", s.data.catalog.Len(),
	)
	return nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(name string, c RedisConfig) (redis.UniversalClient, error) {
		if len(c.Addrs) == 0 {
			slog.Warn("server: redis not configured", "client", name)
			return nil, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    c.Addrs,
			Password: c.Pass,
		})

		if err := telemetry.MonitorRedis(r, name); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.sessions, err = connect("sessions", s.c.Redis.Sessions)
	if err != nil {
		return fmt.Errorf("sessions: %w", err)
	}

	s.infra.redis.pubsub, err = connect("pubsub", s.c.Redis.Pubsub)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initPostgres() (err error) {
	pc := s.c.Postgres.Report
	if pc.Addr == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", pc.User, pc.Pass, pc.Addr, pc.Name))
	if err != nil {
		return err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return fmt.Errorf("report: %w", err)
	}

	s.infra.postgres.report = db
	return nil
}

func (s *Server) initService() error {
	var sessions session.Store = session.NewMemoryStore()
	if r := s.infra.redis.sessions; r != nil {
		sessions = session.NewRedisStore(session.RedisConfig{
			Redis:  r,
			Prefix: s.c.Redis.Sessions.Prefix,
		})
	}

	s.service.quiz = quiz.NewService(quiz.Config{
		Bank:       s.data.bank,
		Sessions:   sessions,
		EventBus:   s.eb,
		TopicCount: s.c.Quiz.TopicCount,
		PerTopic:   s.c.Quiz.PerTopic,
	})

	s.service.score = score.NewService(score.Config{
		Sessions: sessions,
		EventBus: s.eb,
	})

	rc := report.Config{
		Sessions:     sessions,
		Catalog:      s.data.catalog,
		EventBus:     s.eb,
		ShareBaseURL: s.c.ShareBaseURL,
		LockWait:     s.c.Report.LockWait,
	}

	if db := s.infra.postgres.report; db != nil {
		sink := report.NewPostgresSink(db)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := sink.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("report schema: %w", err)
		}

		rc.Sink = sink
		rc.Unsubscribes = sink
	} else {
		sink := report.NewSpreadsheetSink(s.c.Report.SpreadsheetPath)
		rc.Sink = sink
		rc.Unsubscribes = sink
	}

	if r := s.infra.redis.pubsub; r != nil {
		prefix := s.c.Redis.Pubsub.Prefix
		rc.Locker = report.NewRedisLocker(r, prefix)
		rc.Notifier = report.NewRedisNotifier(r, prefix)

		s.service.stats = stats.NewService(stats.Config{
			EventBus: s.eb,
			Redis:    r,
			Prefix:   prefix,
		})
	}

	s.service.report = report.NewService(rc)
	return nil
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		prometheus.Gatherers{s.registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	)))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptor())
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpc, s.health)

	c := api.Config{
		Router:       e,
		EventBus:     s.eb,
		Quiz:         s.service.quiz,
		Score:        s.service.score,
		Report:       s.service.report,
		Stats:        s.service.stats,
		Catalog:      s.data.catalog,
		ShareBaseURL: s.c.ShareBaseURL,
		PubsubPrefix: s.c.Redis.Pubsub.Prefix,
	}
	if s.infra.redis.pubsub != nil {
		c.Redis = s.infra.redis.pubsub
	}
	api.New(c)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

// Start serves HTTP and gRPC until Shutdown is called or a listener fails.
func (s *Server) Start() error {
	ctx := context.TODO()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		return fmt.Errorf("grpc server: listen: %w", err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
		return err
	}
	return nil
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	for name, r := range map[string]redis.UniversalClient{
		"sessions": s.infra.redis.sessions,
		"pubsub":   s.infra.redis.pubsub,
	} {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil {
			slog.ErrorContext(ctx, "server: close redis failed", "client", name, "error", err)
		}
	}

	if db := s.infra.postgres.report; db != nil {
		db.Close()
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
