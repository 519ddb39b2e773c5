package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sangkips/posync/internal/domain/entity"
	domainRepo "github.com/sangkips/posync/internal/domain/repository"
	"github.com/sangkips/posync/internal/infrastructure/database"
	"github.com/sangkips/posync/pkg/apperror"
	"github.com/sangkips/posync/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errNotInitialized = errors.New("storage provider not initialized")

type relationalProvider struct {
	path string
	log  *zap.Logger
	db   *gorm.DB
}

// NewRelationalProvider creates the embedded SQLite backend for the file at path
func NewRelationalProvider(path string, log *zap.Logger) domainRepo.StorageProvider {
	return &relationalProvider{path: path, log: logger.OrNop(log).Named("relational")}
}

// RelationalFactory builds relational providers when the embedded database is enabled
type RelationalFactory struct {
	Enabled bool
	Path    string
	Log     *zap.Logger
}

func (f RelationalFactory) Available() bool {
	return f.Enabled && f.Path != ""
}

func (f RelationalFactory) New() domainRepo.StorageProvider {
	return NewRelationalProvider(f.Path, f.Log)
}

func (p *relationalProvider) Kind() domainRepo.ProviderKind {
	return domainRepo.ProviderRelational
}

func (p *relationalProvider) Init(ctx context.Context) error {
	db, err := database.NewSQLiteDB(p.path)
	if err != nil {
		return err
	}
	if err := database.Migrate(ctx, db, p.log); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return err
	}
	p.db = db
	return nil
}

func (p *relationalProvider) Close() error {
	if p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	p.db = nil
	return sqlDB.Close()
}

func (p *relationalProvider) scoped(ctx context.Context) (*gorm.DB, error) {
	if p.db == nil {
		return nil, errNotInitialized
	}
	return p.db.WithContext(ctx).Scopes(TenantScope(ctx)), nil
}

func (p *relationalProvider) readFailed(table string, err error) {
	p.log.Warn("local read failed", zap.String("table", table), zap.Error(err))
}

func (p *relationalProvider) GetProducts(ctx context.Context) []entity.Product {
	products := []entity.Product{}
	db, err := p.scoped(ctx)
	if err == nil {
		err = db.Order("updated_at DESC").Find(&products).Error
	}
	if err != nil {
		p.readFailed("products", err)
		return []entity.Product{}
	}
	return products
}

func (p *relationalProvider) GetClients(ctx context.Context) []entity.Client {
	clients := []entity.Client{}
	db, err := p.scoped(ctx)
	if err == nil {
		err = db.Order("updated_at DESC").Find(&clients).Error
	}
	if err != nil {
		p.readFailed("clients", err)
		return []entity.Client{}
	}
	return clients
}

func (p *relationalProvider) GetSales(ctx context.Context) []entity.Sale {
	sales := []entity.Sale{}
	db, err := p.scoped(ctx)
	if err == nil {
		err = db.Order("date DESC").Find(&sales).Error
	}
	if err != nil {
		p.readFailed("sales", err)
		return []entity.Sale{}
	}

	for i := range sales {
		var records []entity.SaleItemRecord
		err := p.db.WithContext(ctx).
			Where("sale_id = ?", sales[i].ID).
			Order("position ASC").
			Find(&records).Error
		if err != nil {
			p.readFailed("sale_items", err)
			return []entity.Sale{}
		}
		sales[i].Items = make([]entity.SaleItem, 0, len(records))
		for _, r := range records {
			sales[i].Items = append(sales[i].Items, entity.SaleItem{
				ID:          r.ID,
				ProductID:   r.ProductID,
				ProductName: r.ProductName,
				Quantity:    r.Quantity,
				UnitPrice:   r.UnitPrice,
				UnitCost:    r.UnitCost,
			})
		}
	}
	return sales
}

func (p *relationalProvider) GetTransactions(ctx context.Context) []entity.FinancialTransaction {
	txs := []entity.FinancialTransaction{}
	db, err := p.scoped(ctx)
	if err == nil {
		err = db.Order("date DESC").Find(&txs).Error
	}
	if err != nil {
		p.readFailed("financial_transactions", err)
		return []entity.FinancialTransaction{}
	}
	return txs
}

func (p *relationalProvider) upsert(ctx context.Context, value interface{}) error {
	if p.db == nil {
		return errNotInitialized
	}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}

func (p *relationalProvider) UpsertProduct(ctx context.Context, product *entity.Product) error {
	if err := AssignTenant(ctx, &product.TenantID); err != nil {
		return err
	}
	if err := p.upsert(ctx, product); err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

func (p *relationalProvider) UpsertClient(ctx context.Context, client *entity.Client) error {
	if err := AssignTenant(ctx, &client.TenantID); err != nil {
		return err
	}
	if err := p.upsert(ctx, client); err != nil {
		return fmt.Errorf("failed to upsert client: %w", err)
	}
	return nil
}

func (p *relationalProvider) DeleteProduct(ctx context.Context, id string) error {
	db, err := p.scoped(ctx)
	if err != nil {
		return err
	}
	if err := db.Delete(&entity.Product{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (p *relationalProvider) DeleteClient(ctx context.Context, id string) error {
	db, err := p.scoped(ctx)
	if err != nil {
		return err
	}
	if err := db.Delete(&entity.Client{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

func (p *relationalProvider) AddSale(ctx context.Context, sale *entity.Sale) error {
	if err := AssignTenant(ctx, &sale.TenantID); err != nil {
		return err
	}
	if p.db == nil {
		return errNotInitialized
	}
	sale.EnsureItemIDs()

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(sale).Error; err != nil {
			return err
		}
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&entity.SaleItemRecord{}).Error; err != nil {
			return err
		}
		if len(sale.Items) == 0 {
			return nil
		}

		records := make([]entity.SaleItemRecord, 0, len(sale.Items))
		for i, item := range sale.Items {
			records = append(records, entity.SaleItemRecord{
				ID:          item.ID,
				SaleID:      sale.ID,
				Position:    i,
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				UnitCost:    item.UnitCost,
				TenantID:    sale.TenantID,
			})
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("failed to write sale: %w", err)
	}
	return nil
}

func (p *relationalProvider) AddTransaction(ctx context.Context, t *entity.FinancialTransaction) error {
	if err := AssignTenant(ctx, &t.TenantID); err != nil {
		return err
	}
	if err := p.upsert(ctx, t); err != nil {
		return fmt.Errorf("failed to write transaction: %w", err)
	}
	return nil
}

func (p *relationalProvider) GetEstablishment(ctx context.Context) *entity.Establishment {
	tenantID, ok := GetTenantID(ctx)
	if !ok || p.db == nil {
		return nil
	}
	var est entity.Establishment
	err := p.db.WithContext(ctx).Where("id = ?", tenantID).Limit(1).Find(&est).Error
	if err != nil {
		p.readFailed("establishments", err)
		return nil
	}
	if est.ID == "" {
		return nil
	}
	return &est
}

func (p *relationalProvider) UpsertEstablishment(ctx context.Context, est *entity.Establishment) error {
	if err := assignEstablishment(ctx, est); err != nil {
		return err
	}
	if err := p.upsert(ctx, est); err != nil {
		return fmt.Errorf("failed to upsert establishment: %w", err)
	}
	return nil
}

func (p *relationalProvider) PurgeForeignTenants(ctx context.Context, tenantID string) (int, error) {
	if p.db == nil {
		return 0, errNotInitialized
	}
	removed := 0
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		foreign := "tenant_id IS NOT NULL AND tenant_id <> ?"

		// items of foreign sales may predate the tenant column
		res := tx.Exec("DELETE FROM sale_items WHERE sale_id IN (SELECT id FROM sales WHERE "+foreign+")", tenantID)
		if res.Error != nil {
			return res.Error
		}
		removed += int(res.RowsAffected)

		for _, model := range []interface{}{&entity.SaleItemRecord{}, &entity.Sale{}, &entity.Product{}, &entity.Client{}, &entity.FinancialTransaction{}} {
			res := tx.Where(foreign, tenantID).Delete(model)
			if res.Error != nil {
				return res.Error
			}
			removed += int(res.RowsAffected)
		}

		res = tx.Where("id <> ?", tenantID).Delete(&entity.Establishment{})
		if res.Error != nil {
			return res.Error
		}
		removed += int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge foreign tenants: %w", err)
	}
	return removed, nil
}

func (p *relationalProvider) AdoptUntagged(ctx context.Context, tenantID string) (int, error) {
	if p.db == nil {
		return 0, errNotInitialized
	}
	if tenantID == "" {
		return 0, nil
	}
	adopted := 0
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&entity.Product{}, &entity.Client{}, &entity.Sale{}, &entity.FinancialTransaction{}} {
			res := tx.Model(model).Where("tenant_id IS NULL").UpdateColumn("tenant_id", tenantID)
			if res.Error != nil {
				return res.Error
			}
			adopted += int(res.RowsAffected)
		}
		// items follow their sale and are not counted
		return tx.Model(&entity.SaleItemRecord{}).
			Where("tenant_id IS NULL AND sale_id IN (SELECT id FROM sales WHERE tenant_id = ?)", tenantID).
			UpdateColumn("tenant_id", tenantID).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to adopt untagged rows: %w", err)
	}
	return adopted, nil
}

func (p *relationalProvider) ClearAll(ctx context.Context) error {
	if p.db == nil {
		return errNotInitialized
	}
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []interface{}{
			&entity.SaleItemRecord{},
			&entity.Sale{},
			&entity.Product{},
			&entity.Client{},
			&entity.FinancialTransaction{},
			&entity.Establishment{},
		} {
			if err := tx.Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear local data: %w", err)
			}
		}
		return nil
	})
}

// assignEstablishment ties an establishment to the active tenant. Without a
// tenant there is nothing to cache it under.
func assignEstablishment(ctx context.Context, est *entity.Establishment) error {
	tenantID, ok := GetTenantID(ctx)
	if !ok {
		return apperror.ErrTenantMismatch
	}
	if est.ID == "" {
		est.ID = tenantID
	}
	if est.ID != tenantID {
		return apperror.ErrTenantMismatch
	}
	return nil
}
