package storage

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"resume-tailor-go/internal/config"
	"resume-tailor-go/internal/storage/models"
)

// ErrSessionNotFound 会话不存在
var ErrSessionNotFound = errors.New("会话不存在")

var mysqlTracer = otel.Tracer("resume-tailor-go/storage/mysql")

// MySQL 会话与快照的持久化存储
type MySQL struct {
	db  *gorm.DB
	cfg config.MySQLConfig
}

// NewMySQL 连接MySQL并自动迁移表结构
func NewMySQL(cfg config.MySQLConfig) (*MySQL, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("MySQL地址不能为空")
	}

	params := cfg.Params
	if params == "" {
		params = "charset=utf8mb4&parseTime=True&loc=Local"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, params)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	if err := db.Use(&gormTracingPlugin{tracer: mysqlTracer, dbName: cfg.Database}); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	if err := db.AutoMigrate(&models.TailorSession{}, &models.TailorSnapshot{}); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	return &MySQL{db: db, cfg: cfg}, nil
}

// Close 关闭底层连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSession 新建或更新会话记录
func (m *MySQL) SaveSession(ctx context.Context, session *models.TailorSession) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("会话ID不能为空")
	}
	return m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(session).Error
}

// UpdateSessionJob 回填会话的岗位信息，不触碰简历文本
func (m *MySQL) UpdateSessionJob(ctx context.Context, sessionID, jobText, jobTitle, company string) error {
	if sessionID == "" {
		return fmt.Errorf("会话ID不能为空")
	}
	return m.db.WithContext(ctx).
		Model(&models.TailorSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"job_text":  jobText,
			"job_title": jobTitle,
			"company":   company,
		}).Error
}

// GetSession 按ID读取会话
func (m *MySQL) GetSession(ctx context.Context, sessionID string) (*models.TailorSession, error) {
	var session models.TailorSession
	err := m.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SaveSnapshot 追加一条阶段快照
func (m *MySQL) SaveSnapshot(ctx context.Context, snapshot *models.TailorSnapshot) error {
	if snapshot == nil || snapshot.SessionID == "" {
		return fmt.Errorf("快照必须关联会话ID")
	}
	return m.db.WithContext(ctx).Create(snapshot).Error
}

// ListSnapshots 按会话列出快照，时间升序
func (m *MySQL) ListSnapshots(ctx context.Context, sessionID string) ([]models.TailorSnapshot, error) {
	var snapshots []models.TailorSnapshot
	err := m.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// gormSpanKey 回调间传递span的实例键
const gormSpanKey = "otel:span"

// gormTracingPlugin 为GORM的CRUD操作注册OpenTelemetry追踪回调
type gormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// Name 返回插件名称
func (p *gormTracingPlugin) Name() string {
	return "otelTracingPlugin"
}

// Initialize 注册GORM回调
func (p *gormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}
	return nil
}

func (p *gormTracingPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx, span := p.tracer.Start(db.Statement.Context, "mysql."+operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", "mysql"),
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
			),
		)
		db.Statement.Context = ctx
		db.InstanceSet(gormSpanKey, span)
	}
}

func (p *gormTracingPlugin) after() func(*gorm.DB) {
	return func(db *gorm.DB) {
		value, ok := db.InstanceGet(gormSpanKey)
		if !ok {
			return
		}
		span, ok := value.(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		if db.Statement != nil {
			span.SetAttributes(
				attribute.String("db.table", db.Statement.Table),
				attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
			)
		}
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}
	}
}
