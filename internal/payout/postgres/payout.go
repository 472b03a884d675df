package postgres

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	payoutDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/payout"
	reservationDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/reservation"
	"github.com/frahmantamala/reservation-management/internal/payout"
	"github.com/frahmantamala/reservation-management/internal/reservation"
)

// PayoutRepository implements payout.RepositoryAPI using GORM
type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) payout.RepositoryAPI {
	return &PayoutRepository{db: db}
}

// ListPayableReservations selects the confirmed or completed reservations
// created inside the given calendar month. Payout grouping anchors on
// created_at; the reporting side anchors on check_in.
func (r *PayoutRepository) ListPayableReservations(month, year int) ([]*reservationDatamodel.Reservation, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var reservations []*reservationDatamodel.Reservation
	err := r.db.
		Where("status IN ?", []string{reservation.StatusConfirmed, reservation.StatusCompleted}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Find(&reservations).Error
	return reservations, err
}

// ReplaceHostPayment swaps out any prior payment for the host and period and
// inserts the fresh rows in one transaction. Details are wiped with their
// parent, so a re-run never leaves orphans.
func (r *PayoutRepository) ReplaceHostPayment(payment *payoutDatamodel.HostPayment, details []*payoutDatamodel.HostPaymentDetail) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var prior payoutDatamodel.HostPayment
		err := tx.Where("host_id = ? AND month = ? AND year = ?",
			payment.HostID, payment.Month, payment.Year).
			First(&prior).Error
		if err == nil {
			if err := tx.Where("host_payment_id = ?", prior.ID).
				Delete(&payoutDatamodel.HostPaymentDetail{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&prior).Error; err != nil {
				return err
			}
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		for _, detail := range details {
			detail.HostPaymentID = payment.ID
		}
		if len(details) > 0 {
			if err := tx.Create(&details).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PayoutRepository) GetHostPayment(id int64) (*payoutDatamodel.HostPayment, error) {
	var payment payoutDatamodel.HostPayment
	if err := r.db.First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PayoutRepository) GetByPeriod(hostID int64, month, year int) (*payoutDatamodel.HostPayment, error) {
	var payment payoutDatamodel.HostPayment
	err := r.db.Where("host_id = ? AND month = ? AND year = ?", hostID, month, year).
		First(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PayoutRepository) ListHostPayments(limit, offset int) ([]*payoutDatamodel.HostPayment, error) {
	var payments []*payoutDatamodel.HostPayment
	err := r.db.Order("year DESC, month DESC, host_id ASC").
		Limit(limit).
		Offset(offset).
		Find(&payments).Error
	return payments, err
}

func (r *PayoutRepository) ListByHost(hostID int64, limit, offset int) ([]*payoutDatamodel.HostPayment, error) {
	var payments []*payoutDatamodel.HostPayment
	err := r.db.Where("host_id = ?", hostID).
		Order("year DESC, month DESC").
		Limit(limit).
		Offset(offset).
		Find(&payments).Error
	return payments, err
}

func (r *PayoutRepository) GetDetails(hostPaymentID int64) ([]*payoutDatamodel.HostPaymentDetail, error) {
	var details []*payoutDatamodel.HostPaymentDetail
	err := r.db.Where("host_payment_id = ?", hostPaymentID).
		Order("reservation_id ASC").
		Find(&details).Error
	return details, err
}

// DeleteStaleUnpaid purges unpaid payments for the period whose host no
// longer has payable reservations, details first so no orphans remain.
func (r *PayoutRepository) DeleteStaleUnpaid(month, year int, activeHostIDs []int64) (int64, error) {
	var removed int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		query := tx.Where("month = ? AND year = ?", month, year).
			Where("payment_status <> ?", payoutDatamodel.StatusPaid)
		if len(activeHostIDs) > 0 {
			query = query.Where("host_id NOT IN ?", activeHostIDs)
		}

		var stale []*payoutDatamodel.HostPayment
		if err := query.Find(&stale).Error; err != nil {
			return err
		}

		for _, payment := range stale {
			if err := tx.Where("host_payment_id = ?", payment.ID).
				Delete(&payoutDatamodel.HostPaymentDetail{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(payment).Error; err != nil {
				return err
			}
		}
		removed = int64(len(stale))
		return nil
	})
	return removed, err
}

func (r *PayoutRepository) MarkPaidCAS(id int64, fromStatuses []string, method, reference string, paidAt time.Time) (bool, error) {
	result := r.db.Model(&payoutDatamodel.HostPayment{}).
		Where("id = ? AND payment_status IN ?", id, fromStatuses).
		Updates(map[string]interface{}{
			"payment_status":    payoutDatamodel.StatusPaid,
			"payment_method":    method,
			"payment_reference": reference,
			"paid_at":           paidAt,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PayoutRepository) UpsertAppEarnings(earnings *payoutDatamodel.AppEarnings) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "month"}, {Name: "year"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_reservations", "total_revenue", "total_commission",
			"total_host_payments", "net_earnings", "updated_at",
		}),
	}).Create(earnings).Error
}

func (r *PayoutRepository) SumHostPayments(hostID int64, fromMonth, fromYear, toMonth, toYear int) (*payout.HostStats, error) {
	var payments []*payoutDatamodel.HostPayment
	err := r.db.Where("host_id = ?", hostID).
		Where("(year * 100 + month) BETWEEN ? AND ?",
			fromYear*100+fromMonth, toYear*100+toMonth).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	stats := payout.ZeroHostStats(hostID)
	for _, p := range payments {
		stats.TotalPayments++
		stats.TotalReservations += p.TotalReservations
		stats.TotalRevenue = stats.TotalRevenue.Add(p.TotalRevenue)
		stats.TotalCommission = stats.TotalCommission.Add(p.CommissionAmount)
		stats.TotalEarnings = stats.TotalEarnings.Add(p.HostEarnings)
		if p.PaymentStatus == payoutDatamodel.StatusPaid {
			stats.PaidAmount = stats.PaidAmount.Add(p.HostEarnings)
		} else {
			stats.PendingAmount = stats.PendingAmount.Add(p.HostEarnings)
		}
	}
	return stats, nil
}

// SumAppEarnings aggregates straight from host payment rows, not from the
// app_earnings table, so it also serves the recompute path.
func (r *PayoutRepository) SumAppEarnings(fromMonth, fromYear, toMonth, toYear int) (*payout.AppStats, error) {
	var payments []*payoutDatamodel.HostPayment
	err := r.db.
		Where("(year * 100 + month) BETWEEN ? AND ?",
			fromYear*100+fromMonth, toYear*100+toMonth).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	stats := payout.ZeroAppStats()
	for _, p := range payments {
		stats.TotalReservations += p.TotalReservations
		stats.TotalRevenue = stats.TotalRevenue.Add(p.TotalRevenue)
		stats.TotalCommission = stats.TotalCommission.Add(p.CommissionAmount)
		stats.TotalHostPayments = stats.TotalHostPayments.Add(p.HostEarnings)
	}
	stats.NetEarnings = stats.TotalCommission
	return stats, nil
}
