package dto

import "excos_backend/internal/repositories"

// AnalyticsQuery is bound from query parameters on the analytics endpoint.
// All filters are optional and combine into one shared predicate.
type AnalyticsQuery struct {
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
	Status   string `form:"status" validate:"omitempty,complaintstatus"`
	ExamType string `form:"exam_type" validate:"omitempty,max=100"`
	Days     int    `form:"days" validate:"omitempty,min=1,max=365"`
}

// AnalyticsResponse is the composed aggregate payload. Every aggregate is
// computed behind the caller's visibility scope, recomputed per request.
type AnalyticsResponse struct {
	DailyTrend         []repositories.DailyCount      `json:"daily_trend"`
	StatusDistribution []repositories.StatusCount     `json:"status_distribution"`
	TypeDistribution   []repositories.StatusCount     `json:"type_distribution"`
	ResolutionStats    repositories.ResolutionStats   `json:"resolution_stats"`
	MonthlyComparison  repositories.MonthlyComparison `json:"monthly_comparison"`
	HourlyHistogram    []repositories.HourCount       `json:"hourly_histogram"`
	TopExamTypes       []repositories.StatusCount     `json:"top_exam_types"`
	ResponseStats      repositories.ResponseStats     `json:"response_stats"`
}
