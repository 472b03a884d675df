package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/reservation-management/internal/commission"
	commissionDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/commission"
)

func TestCommissionRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CommissionRepository Suite")
}

type SQLiteCommissionSetting struct {
	ID                   int64     `gorm:"primaryKey"`
	CommissionPercentage string    `gorm:"column:commission_percentage;not null"`
	IsActive             bool      `gorm:"column:is_active;default:false"`
	CreatedAt            time.Time `gorm:"column:created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (SQLiteCommissionSetting) TableName() string {
	return "commission_settings"
}

type SQLiteHostProfile struct {
	ID             int64     `gorm:"primaryKey"`
	UserID         int64     `gorm:"column:user_id;not null;uniqueIndex"`
	CommissionRate *string   `gorm:"column:commission_rate"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (SQLiteHostProfile) TableName() string {
	return "host_profiles"
}

var _ = Describe("CommissionRepository", func() {
	var (
		db   *gorm.DB
		repo commission.RepositoryAPI
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteCommissionSetting{}, &SQLiteHostProfile{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewCommissionRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("GetActive", func() {
		It("should return an error when no rate was ever configured", func() {
			_, err := repo.GetActive()
			Expect(err).To(HaveOccurred())
		})

		It("should return the active setting", func() {
			err := repo.ReplaceActive(&commissionDatamodel.CommissionSetting{
				CommissionPercentage: decimal.NewFromInt(15),
			})
			Expect(err).NotTo(HaveOccurred())

			setting, err := repo.GetActive()
			Expect(err).NotTo(HaveOccurred())
			Expect(setting.IsActive).To(BeTrue())
			Expect(setting.CommissionPercentage.String()).To(Equal("15"))
		})
	})

	Describe("ReplaceActive", func() {
		It("should keep exactly one active row across revisions", func() {
			err := repo.ReplaceActive(&commissionDatamodel.CommissionSetting{
				CommissionPercentage: decimal.NewFromInt(15),
			})
			Expect(err).NotTo(HaveOccurred())

			err = repo.ReplaceActive(&commissionDatamodel.CommissionSetting{
				CommissionPercentage: decimal.NewFromInt(20),
			})
			Expect(err).NotTo(HaveOccurred())

			var activeCount int64
			err = db.Model(&commissionDatamodel.CommissionSetting{}).
				Where("is_active = ?", true).
				Count(&activeCount).Error
			Expect(err).NotTo(HaveOccurred())
			Expect(activeCount).To(Equal(int64(1)))

			setting, err := repo.GetActive()
			Expect(err).NotTo(HaveOccurred())
			Expect(setting.CommissionPercentage.String()).To(Equal("20"))
		})

		It("should preserve retired revisions in history", func() {
			err := repo.ReplaceActive(&commissionDatamodel.CommissionSetting{
				CommissionPercentage: decimal.NewFromInt(15),
			})
			Expect(err).NotTo(HaveOccurred())

			err = repo.ReplaceActive(&commissionDatamodel.CommissionSetting{
				CommissionPercentage: decimal.NewFromInt(20),
			})
			Expect(err).NotTo(HaveOccurred())

			settings, err := repo.History(10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(settings).To(HaveLen(2))
		})
	})

	Describe("GetHostOverride", func() {
		It("should return nil without error when no profile exists", func() {
			rate, err := repo.GetHostOverride(42)
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(BeNil())
		})

		It("should return nil when the profile has no override", func() {
			profile := &commissionDatamodel.HostProfile{UserID: 3}
			Expect(db.Create(profile).Error).NotTo(HaveOccurred())

			rate, err := repo.GetHostOverride(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(BeNil())
		})

		It("should return the override rate when set", func() {
			override := decimal.NewFromInt(10)
			profile := &commissionDatamodel.HostProfile{UserID: 3, CommissionRate: &override}
			Expect(db.Create(profile).Error).NotTo(HaveOccurred())

			rate, err := repo.GetHostOverride(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(rate).NotTo(BeNil())
			Expect(rate.String()).To(Equal("10"))
		})
	})
})
