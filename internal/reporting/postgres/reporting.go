package postgres

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/reservation-management/internal/reporting"
)

// ReportingRepository serves the reporting read-side with plain SQL over
// sqlx. Reports never write, so there is no reason to route them through the
// ORM session.
type ReportingRepository struct {
	db *sqlx.DB
}

func NewReportingRepository(db *sqlx.DB) reporting.RepositoryAPI {
	return &ReportingRepository{db: db}
}

const bookedRowsQuery = `
SELECT property_id, check_in, check_out, total_amount
FROM reservations
WHERE status IN ('confirmed', 'completed')
  AND check_in >= $1
  AND check_in < $2
ORDER BY check_in ASC`

func (r *ReportingRepository) ListBookedRows(from, to time.Time) ([]reporting.ReservationRow, error) {
	rows := []reporting.ReservationRow{}
	if err := r.db.Select(&rows, bookedRowsQuery, from, to); err != nil {
		return nil, err
	}
	return rows, nil
}
