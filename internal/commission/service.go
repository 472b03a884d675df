package commission

import (
	"log/slog"

	internal "github.com/frahmantamala/reservation-management/internal"
	commissionDatamodel "github.com/frahmantamala/reservation-management/internal/core/datamodel/commission"
	"github.com/shopspring/decimal"
)

// RepositoryAPI defines data access for commission settings and host overrides.
type RepositoryAPI interface {
	GetActive() (*commissionDatamodel.CommissionSetting, error)
	// ReplaceActive deactivates the current active row and inserts the new
	// one inside a single transaction.
	ReplaceActive(setting *commissionDatamodel.CommissionSetting) error
	History(limit, offset int) ([]*commissionDatamodel.CommissionSetting, error)
	GetHostOverride(hostID int64) (*decimal.Decimal, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetActiveRate returns the platform-wide active commission percentage.
// There is deliberately no default here: the fallback rate is applied only at
// the payout boundary, never silently inside the policy store.
func (s *Service) GetActiveRate() (decimal.Decimal, error) {
	setting, err := s.repo.GetActive()
	if err != nil {
		s.logger.Warn("no active commission setting", "error", err)
		return decimal.Zero, internal.ErrCommissionNotFound
	}
	return setting.CommissionPercentage, nil
}

// SetActiveRate appends a new rate revision and retires the previous one.
// Rate changes apply prospectively only; payout rows computed under an older
// rate are left untouched.
func (s *Service) SetActiveRate(dto UpdateRateDTO) (*Setting, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("commission rate validation failed", "error", err)
		return nil, err
	}

	setting := &commissionDatamodel.CommissionSetting{
		CommissionPercentage: dto.CommissionPercentage,
		IsActive:             true,
	}

	if err := s.repo.ReplaceActive(setting); err != nil {
		s.logger.Error("failed to replace active commission setting", "error", err)
		return nil, internal.NewUpstreamError("failed to update commission setting", err)
	}

	s.logger.Info("commission rate updated",
		"setting_id", setting.ID,
		"percentage", setting.CommissionPercentage.String())

	return FromDataModel(setting), nil
}

// GetEffectiveRateForHost resolves the rate used for one host's payouts:
// host override first, then the active platform rate.
func (s *Service) GetEffectiveRateForHost(hostID int64) (decimal.Decimal, error) {
	override, err := s.repo.GetHostOverride(hostID)
	if err != nil {
		s.logger.Error("failed to look up host commission override", "error", err, "host_id", hostID)
		return decimal.Zero, internal.NewUpstreamError("failed to look up host override", err)
	}
	if override != nil {
		return *override, nil
	}
	return s.GetActiveRate()
}

// History lists past rate revisions, newest first.
func (s *Service) History(limit, offset int) ([]*Setting, error) {
	settings, err := s.repo.History(limit, offset)
	if err != nil {
		s.logger.Error("failed to list commission history", "error", err)
		return nil, err
	}
	return FromDataModelSlice(settings), nil
}
