package fund

import (
	"context"
	"log/slog"

	apperrors "github.com/frahmantamala/giving-api/internal"
	funddm "github.com/frahmantamala/giving-api/internal/core/datamodel/fund"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetOrCreateGeneral returns the tenant's "General Fund", creating it on
// first use. Lookup and insert are separate statements, so two concurrent
// first-time callers can both create one; later lookups return whichever
// sorts first.
func (s *Service) GetOrCreateGeneral(ctx context.Context, churchID string) (*funddm.Fund, error) {
	existing, err := s.repo.LoadByName(churchID, funddm.GeneralFundName)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load general fund", err)
	}
	if existing != nil {
		return existing, nil
	}

	general := &funddm.Fund{
		ChurchID:      churchID,
		Name:          funddm.GeneralFundName,
		TaxDeductible: true,
	}
	if err := s.repo.Save(general); err != nil {
		return nil, apperrors.NewInternalError("failed to create general fund", err)
	}

	s.logger.Info("general fund created", "fund_id", general.ID, "church_id", churchID)
	return general, nil
}

func (s *Service) Load(ctx context.Context, churchID, id string) (*funddm.Fund, error) {
	fund, err := s.repo.Load(churchID, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load fund", err)
	}
	if fund == nil {
		return nil, apperrors.ErrFundNotFound
	}
	return fund, nil
}

// LoadAll returns the tenant's visible funds; removed funds are excluded.
func (s *Service) LoadAll(ctx context.Context, churchID string) ([]*funddm.Fund, error) {
	funds, err := s.repo.LoadAll(churchID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load funds", err)
	}
	return funds, nil
}

func (s *Service) Save(ctx context.Context, churchID string, dto SaveFundDTO) (*funddm.Fund, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	fund := &funddm.Fund{
		ID:            dto.ID,
		ChurchID:      churchID,
		Name:          dto.Name,
		TaxDeductible: dto.TaxDeductible,
		ProductID:     dto.ProductID,
	}
	if err := s.repo.Save(fund); err != nil {
		return nil, apperrors.NewInternalError("failed to save fund", err)
	}

	s.logger.Info("fund saved", "fund_id", fund.ID, "church_id", churchID, "name", fund.Name)
	return fund, nil
}

// Delete soft-removes the fund so historical allocations keep resolving.
func (s *Service) Delete(ctx context.Context, churchID, id string) error {
	fund, err := s.repo.Load(churchID, id)
	if err != nil {
		return apperrors.NewInternalError("failed to load fund", err)
	}
	if fund == nil {
		return apperrors.ErrFundNotFound
	}

	if err := s.repo.MarkRemoved(churchID, id); err != nil {
		return apperrors.NewInternalError("failed to remove fund", err)
	}

	s.logger.Info("fund removed", "fund_id", id, "church_id", churchID)
	return nil
}
