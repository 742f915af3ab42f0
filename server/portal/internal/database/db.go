package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fleet-ng/models/maintdb"
)

// Config 数据库配置
type Config struct {
	Driver string // sqlite 或 mysql
	DSN    string // 连接串；sqlite 时为文件路径
	Seed   bool   // 是否写入演示数据
}

// DefaultConfig 本地开发默认配置
func DefaultConfig() Config {
	return Config{
		Driver: "sqlite",
		DSN:    "fleet.db",
		Seed:   true,
	}
}

// InitDB 初始化数据库连接
func InitDB(cfg Config) (*gorm.DB, error) {
	// 配置 GORM 日志
	gormLogger := logger.New(
		logger.Default.LogMode(logger.Info).(logger.Writer),
		logger.Config{
			SlowThreshold:             time.Second, // 慢 SQL 阈值
			IgnoreRecordNotFoundError: true,        // 忽略记录未找到错误
			Colorful:                  true,        // 彩色输出
			LogLevel:                  logger.Info, // 设置日志级别为 Info
		},
	)

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %v", err)
	}

	// 获取底层 SQL DB 并设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %v", err)
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	if cfg.Seed {
		SeedDemoData(db)
	}
	return db, nil
}

// AutoMigrate 自动迁移数据库表
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&maintdb.User{},
		&maintdb.Asset{},
		&maintdb.MeterHistory{},
		&maintdb.MaintenanceActionSet{},
		&maintdb.Action{},
		&maintdb.PartDemand{},
		&maintdb.ActionTool{},
		&maintdb.MaintenanceBlocker{},
		&maintdb.MaintenanceDelay{},
		&maintdb.AssetLimitationRecord{},
		&maintdb.Comment{},
		&maintdb.CommentAttachment{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %v", err)
	}
	return nil
}
