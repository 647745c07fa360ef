package migration

import (
	"github.com/jinzhu/gorm"
	"github.com/sysdevguru/corpactions/models"
	gormigrate "gopkg.in/gormigrate.v1"
)

// Migration contains the incremental migrations that keep the database
// schema in sync with the models.
func Migration(db *gorm.DB) *gormigrate.Gormigrate {
	return gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// initial migration
		{
			ID: "202608151030",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&models.Symbol{}).Error; err != nil {
					return err
				}
				if err := tx.AutoMigrate(&models.TaxLot{}).Error; err != nil {
					return err
				}
				if err := tx.AutoMigrate(&models.CorporateAction{}).Error; err != nil {
					return err
				}
				if err := tx.AutoMigrate(&models.ActionAdjustment{}).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.TaxLot{}).
					AddIndex("idx_tax_lots_fifo", "symbol_id", "status", "purchase_date").Error; err != nil {
					return err
				}
				if err := tx.Model(&models.CorporateAction{}).
					AddIndex("idx_corporate_actions_pending", "symbol_id", "status", "ex_date").Error; err != nil {
					return err
				}
				return tx.Model(&models.ActionAdjustment{}).
					AddIndex("idx_action_adjustments_action", "action_id").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.DropTableIfExists(
					&models.ActionAdjustment{},
					&models.CorporateAction{},
					&models.TaxLot{},
					&models.Symbol{},
				).Error
			},
		},
	})
}
