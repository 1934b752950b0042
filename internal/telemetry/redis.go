package telemetry

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

var redisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "redis_command_duration_seconds",
	Help:      "Latency of Redis commands by client and command.",
	Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
}, []string{"client", "command"})

// MonitorRedis instruments a client with tracing, metrics and a debug log of every command.
// name tells the clients apart in logs and metrics.
func MonitorRedis(r redis.UniversalClient, name string) error {
	if err := redisotel.InstrumentTracing(r); err != nil {
		return fmt.Errorf("instrument tracing: %w", err)
	}
	if err := redisotel.InstrumentMetrics(r); err != nil {
		return fmt.Errorf("instrument metrics: %w", err)
	}
	r.AddHook(redisHook{name: name})
	return nil
}

type redisHook struct {
	name string
}

func (h redisHook) DialHook(hook redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := hook(ctx, network, addr)
		if err != nil {
			slog.ErrorContext(ctx, "redis: dial failed", "client", h.name, "addr", addr, "error", err)
			return nil, err
		}
		slog.InfoContext(ctx, "redis: connected", "client", h.name, "network", network, "addr", addr)
		return conn, nil
	}
}

func (h redisHook) ProcessHook(hook redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := hook(ctx, cmd)
		h.observe(ctx, cmd.Name(), start, err)
		return err
	}
}

func (h redisHook) ProcessPipelineHook(hook redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := hook(ctx, cmds)
		h.observe(ctx, "pipeline", start, err)
		return err
	}
}

func (h redisHook) observe(ctx context.Context, command string, start time.Time, err error) {
	d := time.Since(start)
	redisDuration.WithLabelValues(h.name, command).Observe(d.Seconds())

	if err != nil && !stderrors.Is(err, redis.Nil) {
		slog.ErrorContext(ctx, "redis: command failed", "client", h.name, "command", command, "error", err)
		return
	}
	slog.DebugContext(ctx, "redis: command processed", "client", h.name, "command", command, "duration", d)
}
