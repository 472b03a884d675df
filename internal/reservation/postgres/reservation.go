package postgres

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	reservationDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/reservation"
	"github.com/frahmantamala/reservation-management/internal/reservation"
)

// ReservationRepository implements reservation.RepositoryAPI using GORM
type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) reservation.RepositoryAPI {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) GetByID(id int64) (*reservationDatamodel.Reservation, error) {
	var res reservationDatamodel.Reservation
	if err := r.db.First(&res, id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) GetByIDs(ids []int64) ([]*reservationDatamodel.Reservation, error) {
	if len(ids) == 0 {
		return []*reservationDatamodel.Reservation{}, nil
	}
	var reservations []*reservationDatamodel.Reservation
	err := r.db.Where("id IN ?", ids).Find(&reservations).Error
	return reservations, err
}

func (r *ReservationRepository) ListByHost(hostID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error) {
	var reservations []*reservationDatamodel.Reservation
	err := r.db.Where("host_id = ?", hostID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reservations).Error
	return reservations, err
}

func (r *ReservationRepository) ListByGuest(guestID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error) {
	var reservations []*reservationDatamodel.Reservation
	err := r.db.Where("guest_id = ?", guestID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reservations).Error
	return reservations, err
}

func (r *ReservationRepository) ListByProperty(propertyID int64, limit, offset int) ([]*reservationDatamodel.Reservation, error) {
	var reservations []*reservationDatamodel.Reservation
	err := r.db.Where("property_id = ?", propertyID).
		Order("check_in DESC").
		Limit(limit).
		Offset(offset).
		Find(&reservations).Error
	return reservations, err
}

// UpdateCAS applies updates in a single conditional UPDATE. The WHERE clause
// on the current status set makes the transition a compare-and-swap: when a
// concurrent writer already moved the row, zero rows match and the caller
// surfaces a conflict instead of silently stomping the newer state.
func (r *ReservationRepository) UpdateCAS(id int64, fromStatuses []string, updates map[string]interface{}) (bool, error) {
	result := r.db.Model(&reservationDatamodel.Reservation{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ReservationRepository) ReplaceServices(id int64, services reservationDatamodel.AdditionalServices, totalAmount decimal.Decimal) error {
	return r.db.Model(&reservationDatamodel.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"additional_services": services,
			"total_amount":        totalAmount,
			"updated_at":          time.Now(),
		}).Error
}

// CountOverlapping counts pending or confirmed reservations whose stay
// interval intersects [checkIn, checkOut). Intervals are half-open, so a stay
// checking out on the probe's check-in day does not count.
func (r *ReservationRepository) CountOverlapping(propertyID int64, checkIn, checkOut time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&reservationDatamodel.Reservation{}).
		Where("property_id = ?", propertyID).
		Where("status IN ?", []string{reservation.StatusPending, reservation.StatusConfirmed}).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn).
		Count(&count).Error
	return count, err
}

// DeleteExpired removes reservations past their check-out that either never
// reached confirmed or whose payment has fully settled (paid or refunded).
func (r *ReservationRepository) DeleteExpired(today time.Time) (int64, error) {
	result := r.db.
		Where("check_out < ?", today).
		Where("status <> ? OR payment_status IN ?",
			reservation.StatusConfirmed,
			[]string{reservation.PaymentPaid, reservation.PaymentRefunded}).
		Delete(&reservationDatamodel.Reservation{})
	return result.RowsAffected, result.Error
}
