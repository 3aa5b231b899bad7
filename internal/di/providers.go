package di

import (
	"context"
	"fmt"
	"time"

	drepo "OptWatch/internal/domain/repository"
	"OptWatch/internal/handler/api"
	"OptWatch/internal/repository"
	"OptWatch/internal/rolling"
	"OptWatch/internal/service/deribit"
	"OptWatch/internal/usecase"
	"OptWatch/pkg/cache"
	"OptWatch/pkg/clickhouse"
	"OptWatch/pkg/config"
	xhttp "OptWatch/pkg/http"
	"OptWatch/pkg/kafka"
	"OptWatch/pkg/logger"
	"OptWatch/pkg/metrics"
	"OptWatch/pkg/server"
)

func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

func ProvideClock() drepo.Clock {
	return drepo.SystemClock{}
}

// ProvideMarketData builds the Deribit source. With streaming enabled
// the websocket subscription runs for the process lifetime; the REST
// client stays underneath it for the option book and as a fallback.
func ProvideMarketData(cfg *config.Config, log *logger.Logger) drepo.MarketData {
	rest := deribit.New(cfg.Deribit.BaseURL, cfg.Deribit.Timeout, cfg.Deribit.RateLimit)
	if !cfg.Deribit.UseStream {
		return rest
	}
	stream := deribit.NewStream(rest, cfg.Deribit.WebSocketURL, cfg.Monitor.IndexName, log)
	go stream.Run(context.Background())
	return stream
}

// ProvideSink builds the configured record sink. Each sink owns the
// client it is built on and closes it with the sink.
func ProvideSink(cfg *config.Config) (drepo.RecordSink, error) {
	switch cfg.Sink.Type {
	case "csv":
		return repository.NewCSVSink(cfg.Sink.CSVPath, cfg.Monitor.Instruments, cfg.Location()), nil
	case "kafka":
		producer, err := kafka.NewProducer(
			kafka.WithBrokers(cfg.Kafka.Brokers),
			kafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			kafka.WithCompression(cfg.Kafka.Compression),
			kafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
			kafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka sink: %w", err)
		}
		return repository.NewKafkaSink(producer, cfg.Kafka.Topic, cfg.Monitor.Currency), nil
	case "clickhouse":
		client, err := newClickHouseClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("clickhouse sink: %w", err)
		}
		return repository.NewClickHouseSink(client, "option_monitor"), nil
	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Sink.Type)
	}
}

func newClickHouseClient(cfg *config.Config) (*clickhouse.Client, error) {
	return clickhouse.NewClient(
		clickhouse.WithHost(cfg.ClickHouse.Host),
		clickhouse.WithPort(cfg.ClickHouse.Port),
		clickhouse.WithDatabase(cfg.ClickHouse.Database),
		clickhouse.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		clickhouse.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
}

func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	)
}

func ProvideWindow(cfg *config.Config) *rolling.Window {
	capacity := int(cfg.Monitor.RollingWindow / cfg.Monitor.PollInterval)
	return rolling.NewWindow(capacity)
}

func ProvideQuoteProcessor(cfg *config.Config, clock drepo.Clock, log *logger.Logger) *usecase.QuoteProcessor {
	return usecase.NewQuoteProcessor(cfg.Monitor.Instruments, clock, log)
}

func ProvideMonitorConfig(cfg *config.Config) usecase.MonitorConfig {
	return usecase.MonitorConfig{
		IndexName:    cfg.Monitor.IndexName,
		Currency:     cfg.Monitor.Currency,
		SinkName:     cfg.Sink.Type,
		PollInterval: cfg.Monitor.PollInterval,
		StopHour:     cfg.Monitor.StopHour,
		StopMinute:   cfg.Monitor.StopMinute,
		Location:     cfg.Location(),
	}
}

func ProvideMonitor(
	cfg *config.Config,
	source drepo.MarketData,
	sink drepo.RecordSink,
	cacheSvc cache.Service,
	m drepo.Metrics,
	window *rolling.Window,
	processor *usecase.QuoteProcessor,
	clock drepo.Clock,
	log *logger.Logger,
) *usecase.Monitor {
	return usecase.NewMonitor(ProvideMonitorConfig(cfg), source, sink, cacheSvc, m, window, processor, clock, log)
}

func ProvideStatusHandler(cfg *config.Config, cacheSvc cache.Service, log *logger.Logger) *api.StatusHandler {
	return api.NewStatusHandler(cfg.Monitor.Instruments, cacheSvc, log)
}

func ProvideHTTPServer(cfg *config.Config, handler *api.StatusHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideConsumer builds the Kafka to ClickHouse bridge consumer, or
// nil when the bridge is disabled. The bridge owns its own ClickHouse
// sink, separate from the main record sink.
func ProvideConsumer(cfg *config.Config, log *logger.Logger) (*kafka.Consumer, error) {
	if !cfg.Kafka.Bridge.Enabled {
		return nil, nil
	}

	client, err := newClickHouseClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("bridge clickhouse: %w", err)
	}
	sink := repository.NewClickHouseSink(client, "option_monitor")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sink.Init(ctx); err != nil {
		return nil, fmt.Errorf("bridge schema: %w", err)
	}

	consumer, err := kafka.NewConsumer(
		kafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		kafka.WithConsumerGroupID(cfg.Kafka.Bridge.GroupID),
		kafka.WithConsumerRetry(cfg.Kafka.Bridge.RetryMax, cfg.Kafka.Bridge.BackoffMin, cfg.Kafka.Bridge.BackoffMax),
	)
	if err != nil {
		return nil, fmt.Errorf("bridge consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewRecordBridgeHandler(cfg.Kafka.Topic, sink, log))
	return consumer, nil
}

func ProvideApp(
	cfg *config.Config,
	httpServer *xhttp.Server,
	monitor *usecase.Monitor,
	sink drepo.RecordSink,
	cacheSvc cache.Service,
	consumer *kafka.Consumer,
	log *logger.Logger,
) *server.App {
	return server.NewApp(httpServer, monitor, sink, cacheSvc, consumer, log, cfg.Server.ShutdownTimeout)
}
