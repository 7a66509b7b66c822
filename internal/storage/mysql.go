package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"resume-intake/internal/config"
	"resume-intake/internal/logger"
	"resume-intake/internal/storage/models"
	"resume-intake/internal/tracing"
)

var mysqlTracer = otel.Tracer("resume-intake/storage/mysql")

// spanContextKey 在 before/after 回调之间传递 span
type spanContextKey struct{}

// callbackRegistrar gorm 回调链上的一个注册点
type callbackRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// gormTracing 为每条 GORM 语句创建一个客户端 span
type gormTracing struct {
	dbName   string
	dbSystem string
}

func (p *gormTracing) Name() string { return "resume-intake:otel" }

func (p *gormTracing) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	for _, h := range []struct{ name, op string }{
		{"create", "INSERT"},
		{"query", "SELECT"},
		{"update", "UPDATE"},
		{"delete", "DELETE"},
		{"raw", "RAW"},
	} {
		gormName := "gorm:" + h.name
		var before, after callbackRegistrar
		switch h.name {
		case "create":
			before, after = cb.Create().Before(gormName), cb.Create().After(gormName)
		case "query":
			before, after = cb.Query().Before(gormName), cb.Query().After(gormName)
		case "update":
			before, after = cb.Update().Before(gormName), cb.Update().After(gormName)
		case "delete":
			before, after = cb.Delete().Before(gormName), cb.Delete().After(gormName)
		case "raw":
			before, after = cb.Raw().Before(gormName), cb.Raw().After(gormName)
		}
		if err := before.Register("otel:before_"+h.name, p.start(h.op)); err != nil {
			return err
		}
		if err := after.Register("otel:after_"+h.name, p.end); err != nil {
			return err
		}
	}
	return nil
}

func (p *gormTracing) start(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement.SkipHooks {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		ctx, span := mysqlTracer.Start(ctx, op+" "+table,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", p.dbSystem),
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", op),
				attribute.String("db.sql.table", table),
			),
		)
		db.Statement.Context = context.WithValue(ctx, spanContextKey{}, span)
	}
}

// end 结束 span，查不到记录不算错误
func (p *gormTracing) end(db *gorm.DB) {
	span, ok := db.Statement.Context.Value(spanContextKey{}).(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	span.SetAttributes(attribute.Int64("db.rows_affected", max(db.Statement.RowsAffected, 0)))
	switch {
	case db.Error == nil:
	case errors.Is(db.Error, gorm.ErrRecordNotFound):
		span.SetAttributes(attribute.Bool("db.record_not_found", true))
	default:
		tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
	}
}

// MySQL 草稿与发件箱所在的关系数据库
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s&readTimeout=30s&writeTimeout=30s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	m, err := OpenDatabase(mysql.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	logger.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// OpenDatabase 使用任意GORM方言打开数据库、注册追踪插件并迁移表结构
func OpenDatabase(dialector gorm.Dialector, cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		cfg = &config.MySQLConfig{}
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg}

	if err := db.Use(&gormTracing{dbName: cfg.Database, dbSystem: dialector.Name()}); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	if err := m.autoMigrateSchema(); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}
	return m, nil
}

// gormLogLevel 配置值 1-4 对应 Silent/Error/Warn/Info
func gormLogLevel(level int) gormlogger.LogLevel {
	switch level {
	case 1:
		return gormlogger.Silent
	case 2:
		return gormlogger.Error
	case 3:
		return gormlogger.Warn
	case 4:
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// autoMigrateSchema 迁移时不输出 SQL 日志
func (m *MySQL) autoMigrateSchema() error {
	err := m.db.Session(&gorm.Session{Logger: gormlogger.Discard}).AutoMigrate(
		&models.ProfileDraft{},
		&models.OutboxMessage{},
	)
	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}
