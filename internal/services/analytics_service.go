package services

import (
	"context"
	"time"

	"excos_backend/internal/auth"
	"excos_backend/internal/models"
	"excos_backend/internal/repositories"
	"excos_backend/internal/services/dto"
	"excos_backend/pkg/apperrors"
)

const (
	defaultTrendDays = 30
	topExamTypeLimit = 5
)

type AnalyticsService interface {
	GetOverview(ctx context.Context, claims *auth.SessionClaims, query *dto.AnalyticsQuery) (*dto.AnalyticsResponse, error)
}

type analyticsService struct {
	analyticsRepo repositories.AnalyticsRepository
}

func NewAnalyticsService(analyticsRepo repositories.AnalyticsRepository) AnalyticsService {
	return &analyticsService{analyticsRepo: analyticsRepo}
}

// GetOverview composes the complaint statistics visible to the caller.
// Every aggregate runs behind the same scope predicate as the complaint
// listing, so the dashboard never shows rows the list would hide.
func (s *analyticsService) GetOverview(ctx context.Context, claims *auth.SessionClaims, query *dto.AnalyticsQuery) (*dto.AnalyticsResponse, error) {
	if claims == nil || claims.Role != models.UserRoleAdmin {
		return nil, apperrors.ErrInsufficientPermissions
	}

	scope := auth.ScopeFor(claims)

	filter := repositories.AnalyticsFilter{
		Status:   query.Status,
		ExamType: query.ExamType,
	}
	if query.DateFrom != "" {
		if t, err := time.Parse("2006-01-02", query.DateFrom); err == nil {
			filter.DateFrom = t
		}
	}
	if query.DateTo != "" {
		if t, err := time.Parse("2006-01-02", query.DateTo); err == nil {
			filter.DateTo = t.Add(24*time.Hour - time.Nanosecond)
		}
	}

	days := query.Days
	if days == 0 {
		days = defaultTrendDays
	}

	resp := &dto.AnalyticsResponse{}
	var err error

	if resp.DailyTrend, err = s.analyticsRepo.GetDailyTrend(scope, filter, days); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if resp.StatusDistribution, err = s.analyticsRepo.GetStatusDistribution(scope, filter); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if resp.TypeDistribution, err = s.analyticsRepo.GetTypeDistribution(scope, filter); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if resp.ResolutionStats, err = s.analyticsRepo.GetResolutionStats(scope, filter); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if resp.MonthlyComparison, err = s.analyticsRepo.GetMonthlyComparison(scope, filter); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if resp.HourlyHistogram, err = s.analyticsRepo.GetHourlyHistogram(scope, filter); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if resp.TopExamTypes, err = s.analyticsRepo.GetTopExamTypes(scope, filter, topExamTypeLimit); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if resp.ResponseStats, err = s.analyticsRepo.GetResponseStats(scope, filter); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return resp, nil
}
