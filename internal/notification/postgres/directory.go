package postgres

import (
	"gorm.io/gorm"

	userDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/reservation-management/internal/notification"
)

// UserDirectory resolves notification recipients from the users table.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) notification.DirectoryAPI {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) AdminIDs() ([]int64, error) {
	var ids []int64
	err := d.db.Model(&userDatamodel.User{}).
		Where("role = ?", userDatamodel.RoleAdmin).
		Pluck("id", &ids).Error
	return ids, err
}
