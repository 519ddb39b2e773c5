package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sangkips/posync/internal/domain/entity"
	"github.com/sangkips/posync/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// tenantScopedTables gained a tenant_id column after the first release
var tenantScopedTables = []string{"products", "clients", "sales", "sale_items", "financial_transactions"}

// NewSQLiteDB opens the embedded database file at path
func NewSQLiteDB(path string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// SQLite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Migrate brings the schema up to date. Legacy tables get their tenant_id
// column and sale items written before item ids existed receive one, then
// gorm creates whatever is still missing.
func Migrate(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	db = db.WithContext(ctx)

	if err := EnsureTenantColumns(db, log); err != nil {
		return err
	}

	if db.Migrator().HasTable(&entity.SaleItemRecord{}) {
		n, err := BackfillSaleItemIDs(db)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info("backfilled sale item ids", zap.Int("count", n))
		}
	}

	err := db.AutoMigrate(
		&entity.Product{},
		&entity.Client{},
		&entity.Sale{},
		&entity.SaleItemRecord{},
		&entity.FinancialTransaction{},
		&entity.Establishment{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// EnsureTenantColumns adds tenant_id to every existing table that lacks it.
// A "duplicate column" answer means another process won the race and is
// treated as success.
func EnsureTenantColumns(db *gorm.DB, log *zap.Logger) error {
	m := db.Migrator()
	for _, table := range tenantScopedTables {
		if !m.HasTable(table) || m.HasColumn(table, "tenant_id") {
			continue
		}
		err := db.Exec("ALTER TABLE " + table + " ADD COLUMN tenant_id TEXT").Error
		if err != nil && !isDuplicateColumn(err) {
			return fmt.Errorf("failed to add tenant_id to %s: %w", table, err)
		}
		log.Info("added tenant column", zap.String("table", table))
	}
	return nil
}

func isDuplicateColumn(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column")
}

type legacyItem struct {
	RowID    int64
	SaleID   string
	Position int
}

// BackfillSaleItemIDs assigns the same derived id push would compute to
// every stored item that has none, so the id never changes afterwards.
func BackfillSaleItemIDs(db *gorm.DB) (int, error) {
	var rows []legacyItem
	err := db.Raw("SELECT rowid AS row_id, sale_id, position FROM sale_items WHERE id IS NULL OR id = ''").
		Scan(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("failed to scan legacy sale items: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, r := range rows {
			id := utils.DeriveID(r.SaleID, strconv.Itoa(r.Position))
			if err := tx.Exec("UPDATE sale_items SET id = ? WHERE rowid = ?", id, r.RowID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to backfill sale item ids: %w", err)
	}
	return len(rows), nil
}
