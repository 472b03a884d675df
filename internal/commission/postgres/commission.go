package postgres

import (
	"time"

	"github.com/frahmantamala/reservation-management/internal/commission"
	commissionDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/commission"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionRepository implements commission.RepositoryAPI using GORM
type CommissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) commission.RepositoryAPI {
	return &CommissionRepository{db: db}
}

func (r *CommissionRepository) GetActive() (*commissionDatamodel.CommissionSetting, error) {
	var setting commissionDatamodel.CommissionSetting
	err := r.db.Where("is_active = ?", true).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// ReplaceActive retires the current active row and inserts the new one in a
// single transaction, keeping the at-most-one-active invariant.
func (r *CommissionRepository) ReplaceActive(setting *commissionDatamodel.CommissionSetting) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&commissionDatamodel.CommissionSetting{}).
			Where("is_active = ?", true).
			Updates(map[string]interface{}{
				"is_active":  false,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		setting.IsActive = true
		return tx.Create(setting).Error
	})
}

func (r *CommissionRepository) History(limit, offset int) ([]*commissionDatamodel.CommissionSetting, error) {
	var settings []*commissionDatamodel.CommissionSetting
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&settings).Error
	return settings, err
}

func (r *CommissionRepository) GetHostOverride(hostID int64) (*decimal.Decimal, error) {
	var profile commissionDatamodel.HostProfile
	err := r.db.Where("user_id = ?", hostID).First(&profile).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return profile.CommissionRate, nil
}
