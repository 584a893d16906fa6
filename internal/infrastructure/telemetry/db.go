package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig controls database instrumentation.
type DBConfig struct {
	// TraceEnabled registers otelgorm so every statement gets a span
	TraceEnabled bool
	// LogFullSQL keeps bound variables in span statements (development only)
	LogFullSQL bool
	// SlowQueryThreshold marks spans and counts queries slower than this (default 200ms)
	SlowQueryThreshold time.Duration
	// PoolStatsInterval is how often pool gauges are sampled (default 15s)
	PoolStatsInterval time.Duration
	// DBSystem names the database in spans ("postgresql" or "sqlite")
	DBSystem string
}

func (c DBConfig) withDefaults() DBConfig {
	if c.SlowQueryThreshold <= 0 {
		c.SlowQueryThreshold = 200 * time.Millisecond
	}
	if c.PoolStatsInterval <= 0 {
		c.PoolStatsInterval = 15 * time.Second
	}
	if c.DBSystem == "" {
		c.DBSystem = "postgresql"
	}
	return c
}

// DBMetrics holds query and connection pool instruments.
type DBMetrics struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	queryTotal         *Counter
	queryDuration      *Histogram
	slowQueryTotal     *Counter

	config   DBConfig
	logger   *zap.Logger
	sqlDB    *sql.DB
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDBMetrics creates the database instruments on meter.
func NewDBMetrics(meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &DBMetrics{
		config: cfg.withDefaults(),
		logger: logger,
		stopCh: make(chan struct{}),
	}

	var err error
	if m.poolConnections, err = NewGauge(meter,
		"storefront_db_pool_connections",
		"Connections in the pool by state",
		"{connection}",
	); err != nil {
		return nil, err
	}
	if m.poolConnectionsMax, err = NewGauge(meter,
		"storefront_db_pool_connections_max",
		"Maximum open connections allowed",
		"{connection}",
	); err != nil {
		return nil, err
	}
	if m.queryTotal, err = NewCounter(meter,
		"storefront_db_query_total",
		"Database statements by operation and table",
		"{query}",
	); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "storefront_db_query_duration_seconds",
		Description: "Database statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter,
		"storefront_db_slow_query_total",
		"Statements slower than the slow query threshold",
		"{query}",
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordQuery records one finished statement.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, d time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "OTHER"
	}
	if table == "" {
		table = "unknown"
	}
	attrs := []attribute.KeyValue{AttrDBOperation.String(operation), AttrDBTable.String(table)}

	m.queryTotal.Inc(ctx, attrs...)
	m.queryDuration.RecordDuration(ctx, d, attrs...)
	if d > m.config.SlowQueryThreshold {
		m.slowQueryTotal.Inc(ctx, attrs...)
	}
}

// StartPoolStatsCollection samples sqlDB.Stats until Stop or ctx is done.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context, sqlDB *sql.DB) {
	m.sqlDB = sqlDB
	m.collectPoolStats(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.collectPoolStats(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// Stop ends pool collection. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// dbPlugin annotates statement spans and feeds DBMetrics from gorm callbacks.
type dbPlugin struct {
	config  DBConfig
	metrics *DBMetrics
}

type dbStartKey struct{}

// Name implements gorm.Plugin.
func (p *dbPlugin) Name() string { return "storefront:db_telemetry" }

// Initialize implements gorm.Plugin.
func (p *dbPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("storefront:before_create", p.before),
		cb.Create().After("gorm:create").Register("storefront:after_create", p.afterOp("INSERT")),
		cb.Query().Before("gorm:query").Register("storefront:before_query", p.before),
		cb.Query().After("gorm:query").Register("storefront:after_query", p.afterOp("SELECT")),
		cb.Update().Before("gorm:update").Register("storefront:before_update", p.before),
		cb.Update().After("gorm:update").Register("storefront:after_update", p.afterOp("UPDATE")),
		cb.Delete().Before("gorm:delete").Register("storefront:before_delete", p.before),
		cb.Delete().After("gorm:delete").Register("storefront:after_delete", p.afterOp("DELETE")),
		cb.Row().Before("gorm:row").Register("storefront:before_row", p.before),
		cb.Row().After("gorm:row").Register("storefront:after_row", p.afterOp("")),
		cb.Raw().Before("gorm:raw").Register("storefront:before_raw", p.before),
		cb.Raw().After("gorm:raw").Register("storefront:after_raw", p.afterOp("")),
	)
}

func (p *dbPlugin) before(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, dbStartKey{}, time.Now())
}

// afterOp records a finished statement; an empty op is read from the SQL.
func (p *dbPlugin) afterOp(op string) func(*gorm.DB) {
	return func(db *gorm.DB) { p.after(db, op) }
}

func (p *dbPlugin) after(db *gorm.DB, op string) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(dbStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if op == "" {
		op = detectOperationType(db.Statement.SQL.String())
	}

	if p.metrics != nil {
		p.metrics.RecordQuery(ctx, op, db.Statement.Table, elapsed)
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
	if elapsed > p.config.SlowQueryThreshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

// detectOperationType reads the statement verb of a raw query.
func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "WITH"} {
		if strings.HasPrefix(sql, verb) {
			if verb == "WITH" {
				return "SELECT"
			}
			return verb
		}
	}
	return "OTHER"
}

// InstrumentDB registers otelgorm (when tracing is on) and the storefront
// statement plugin on db. meter may be nil, in which case only spans are
// annotated. The returned metrics, when non-nil, must be stopped on shutdown.
func InstrumentDB(ctx context.Context, db *gorm.DB, meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	if cfg.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, err
		}
	}

	var metrics *DBMetrics
	if meter != nil {
		var err error
		if metrics, err = NewDBMetrics(meter, cfg, logger); err != nil {
			return nil, err
		}
	}

	if err := db.Use(&dbPlugin{config: cfg, metrics: metrics}); err != nil {
		return nil, err
	}

	if metrics != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		metrics.StartPoolStatsCollection(ctx, sqlDB)
	}

	logger.Info("Database instrumentation registered",
		zap.Bool("tracing", cfg.TraceEnabled),
		zap.Bool("metrics", metrics != nil),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
	)
	return metrics, nil
}
