package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Init 初始化数据库连接并执行自动迁移。
// dsn 以 postgres:// 或 postgresql:// 开头时使用 Postgres 驱动，
// 其余情况按 SQLite 文件路径处理；为空时回退到默认值 connectly.db。
func Init(dsn string) error {
	dialector, err := resolveDialector(dsn)
	if err != nil {
		return err
	}

	DB, err = gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return err
	}

	// 自动迁移模式，为核心模型创建表
	return DB.AutoMigrate(
		&User{},
		&Page{},
		&Link{},
		&PageDesign{},
		&PageVisit{},
		&PageStatistic{},
		&PageView{},
		&LinkClick{},
	)
}

func resolveDialector(dsn string) (gorm.Dialector, error) {
	trimmed := strings.TrimSpace(dsn)

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return postgres.Open(trimmed), nil
	}

	if trimmed == "" {
		trimmed = "connectly.db"
	}
	if err := ensureParentDir(trimmed); err != nil {
		return nil, err
	}
	return sqlite.Open(trimmed), nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
