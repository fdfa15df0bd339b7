package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"excos_backend/internal/auth"
	"excos_backend/internal/db"
	"excos_backend/pkg/metrics"
)

// AnalyticsFilter narrows the aggregation window. Zero values mean
// unbounded on that dimension.
type AnalyticsFilter struct {
	DateFrom time.Time
	DateTo   time.Time
	Status   string
	ExamType string
}

// StatusCount is one slice of a grouped count.
type StatusCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// DailyCount is one day of the submission trend.
type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// HourCount is one bucket of the hour-of-day histogram.
type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// ResolutionStats summarizes submission-to-resolution times, measured
// against the first transition into resolved on the status history.
type ResolutionStats struct {
	ResolvedCount int64   `json:"resolved_count"`
	AvgHours      float64 `json:"avg_hours"`
	MinHours      float64 `json:"min_hours"`
	MaxHours      float64 `json:"max_hours"`
}

// MonthlyComparison holds this month's submission count next to the
// previous month's.
type MonthlyComparison struct {
	CurrentMonth  int64 `json:"current_month"`
	PreviousMonth int64 `json:"previous_month"`
}

// ResponseStats summarizes admin response activity: total responses and
// the average hours from submission to the first response.
type ResponseStats struct {
	TotalResponses        int64   `json:"total_responses"`
	AvgFirstResponseHours float64 `json:"avg_first_response_hours"`
}

type AnalyticsRepository interface {
	GetDailyTrend(scope auth.Scope, filter AnalyticsFilter, days int) ([]DailyCount, error)
	GetStatusDistribution(scope auth.Scope, filter AnalyticsFilter) ([]StatusCount, error)
	GetTypeDistribution(scope auth.Scope, filter AnalyticsFilter) ([]StatusCount, error)
	GetResolutionStats(scope auth.Scope, filter AnalyticsFilter) (ResolutionStats, error)
	GetMonthlyComparison(scope auth.Scope, filter AnalyticsFilter) (MonthlyComparison, error)
	GetHourlyHistogram(scope auth.Scope, filter AnalyticsFilter) ([]HourCount, error)
	GetTopExamTypes(scope auth.Scope, filter AnalyticsFilter, limit int) ([]StatusCount, error)
	GetResponseStats(scope auth.Scope, filter AnalyticsFilter) (ResponseStats, error)
}

type analyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(database *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: database}
}

// timeQuery feeds the db_query_duration histogram for one raw aggregate.
func timeQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		metrics.RecordDBQueryDuration(operation, table, time.Since(start))
	}
}

// buildWhere renders the shared scope + filter predicate. Every aggregate
// goes through it so the visibility rules cannot drift between queries.
func buildWhere(scope auth.Scope, filter AnalyticsFilter, alias string) (string, []interface{}) {
	where := "1 = 1"
	var args []interface{}
	n := 1

	switch scope.Kind {
	case auth.ScopeOwner:
		where += fmt.Sprintf(" AND %s.user_id = $%d", alias, n)
		args = append(args, scope.UserID)
		n++
	case auth.ScopeDepartment:
		where += fmt.Sprintf(" AND %s.department = $%d", alias, n)
		args = append(args, scope.Department)
		n++
	case auth.ScopeFaculty:
		where += fmt.Sprintf(" AND %s.faculty = $%d", alias, n)
		args = append(args, scope.Faculty)
		n++
	case auth.ScopeAll:
		// No predicate
	default:
		where += " AND 1 = 0"
	}

	if filter.Status != "" {
		where += fmt.Sprintf(" AND %s.status = $%d", alias, n)
		args = append(args, filter.Status)
		n++
	}
	if filter.ExamType != "" {
		where += fmt.Sprintf(" AND %s.exam_type = $%d", alias, n)
		args = append(args, filter.ExamType)
		n++
	}
	if !filter.DateFrom.IsZero() {
		where += fmt.Sprintf(" AND %s.created_at >= $%d", alias, n)
		args = append(args, filter.DateFrom)
		n++
	}
	if !filter.DateTo.IsZero() {
		where += fmt.Sprintf(" AND %s.created_at <= $%d", alias, n)
		args = append(args, filter.DateTo)
	}

	return where, args
}

func (r *analyticsRepository) GetDailyTrend(scope auth.Scope, filter AnalyticsFilter, days int) ([]DailyCount, error) {
	defer timeQuery("daily_trend", "complaints")()
	if days < 1 || days > 365 {
		days = 30
	}

	where, args := buildWhere(scope, filter, "c")
	query := fmt.Sprintf(`
        SELECT to_char(date_trunc('day', c.created_at), 'YYYY-MM-DD'), COUNT(*)
        FROM complaints c
        WHERE %s AND c.created_at >= date_trunc('day', NOW()) - INTERVAL '%d days'
        GROUP BY 1
        ORDER BY 1
    `, where, days-1)

	var trend []DailyCount
	err := db.WithRetry(func() error {
		rows, err := r.db.Query(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		trend = trend[:0]
		for rows.Next() {
			var dc DailyCount
			if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
				return err
			}
			trend = append(trend, dc)
		}
		return rows.Err()
	})
	return trend, err
}

func (r *analyticsRepository) GetStatusDistribution(scope auth.Scope, filter AnalyticsFilter) ([]StatusCount, error) {
	return r.groupedCount(scope, filter, "c.status", 0)
}

func (r *analyticsRepository) GetTypeDistribution(scope auth.Scope, filter AnalyticsFilter) ([]StatusCount, error) {
	return r.groupedCount(scope, filter, "c.exam_type", 0)
}

func (r *analyticsRepository) GetTopExamTypes(scope auth.Scope, filter AnalyticsFilter, limit int) ([]StatusCount, error) {
	if limit < 1 || limit > 50 {
		limit = 5
	}
	return r.groupedCount(scope, filter, "c.exam_type", limit)
}

func (r *analyticsRepository) groupedCount(scope auth.Scope, filter AnalyticsFilter, column string, limit int) ([]StatusCount, error) {
	defer timeQuery("grouped_count", "complaints")()
	where, args := buildWhere(scope, filter, "c")
	query := fmt.Sprintf(`
        SELECT COALESCE(%s, ''), COUNT(*)
        FROM complaints c
        WHERE %s
        GROUP BY %s
        ORDER BY COUNT(*) DESC
    `, column, where, column)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var counts []StatusCount
	err := db.WithRetry(func() error {
		rows, err := r.db.Query(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		counts = counts[:0]
		for rows.Next() {
			var sc StatusCount
			if err := rows.Scan(&sc.Key, &sc.Count); err != nil {
				return err
			}
			counts = append(counts, sc)
		}
		return rows.Err()
	})
	return counts, err
}

// GetResolutionStats measures submission to the first transition into
// resolved, from the status history trail.
func (r *analyticsRepository) GetResolutionStats(scope auth.Scope, filter AnalyticsFilter) (ResolutionStats, error) {
	defer timeQuery("resolution_stats", "complaint_status_histories")()
	where, args := buildWhere(scope, filter, "c")
	query := fmt.Sprintf(`
        SELECT
            COUNT(*),
            AVG(EXTRACT(EPOCH FROM (h.created_at - c.created_at)) / 3600),
            MIN(EXTRACT(EPOCH FROM (h.created_at - c.created_at)) / 3600),
            MAX(EXTRACT(EPOCH FROM (h.created_at - c.created_at)) / 3600)
        FROM complaints c
        JOIN LATERAL (
            SELECT MIN(created_at) AS created_at
            FROM complaint_status_histories
            WHERE complaint_id = c.id AND new_status = 'resolved'
        ) h ON h.created_at IS NOT NULL
        WHERE %s
    `, where)

	var stats ResolutionStats
	var avg, min, max sql.NullFloat64
	err := db.WithRetry(func() error {
		return r.db.QueryRow(query, args...).Scan(&stats.ResolvedCount, &avg, &min, &max)
	})
	if err != nil {
		return ResolutionStats{}, err
	}
	stats.AvgHours = avg.Float64
	stats.MinHours = min.Float64
	stats.MaxHours = max.Float64
	return stats, nil
}

func (r *analyticsRepository) GetMonthlyComparison(scope auth.Scope, filter AnalyticsFilter) (MonthlyComparison, error) {
	defer timeQuery("monthly_comparison", "complaints")()
	where, args := buildWhere(scope, filter, "c")
	query := fmt.Sprintf(`
        SELECT
            COUNT(*) FILTER (WHERE c.created_at >= date_trunc('month', NOW())),
            COUNT(*) FILTER (WHERE c.created_at >= date_trunc('month', NOW()) - INTERVAL '1 month'
                         AND c.created_at <  date_trunc('month', NOW()))
        FROM complaints c
        WHERE %s
    `, where)

	var cmp MonthlyComparison
	err := db.WithRetry(func() error {
		return r.db.QueryRow(query, args...).Scan(&cmp.CurrentMonth, &cmp.PreviousMonth)
	})
	return cmp, err
}

func (r *analyticsRepository) GetHourlyHistogram(scope auth.Scope, filter AnalyticsFilter) ([]HourCount, error) {
	defer timeQuery("hourly_histogram", "complaints")()
	where, args := buildWhere(scope, filter, "c")
	query := fmt.Sprintf(`
        SELECT EXTRACT(HOUR FROM c.created_at)::int, COUNT(*)
        FROM complaints c
        WHERE %s
        GROUP BY 1
        ORDER BY 1
    `, where)

	var histogram []HourCount
	err := db.WithRetry(func() error {
		rows, err := r.db.Query(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		histogram = histogram[:0]
		for rows.Next() {
			var hc HourCount
			if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
				return err
			}
			histogram = append(histogram, hc)
		}
		return rows.Err()
	})
	return histogram, err
}

// GetResponseStats counts responses on visible complaints and averages the
// hours from submission to the first response.
func (r *analyticsRepository) GetResponseStats(scope auth.Scope, filter AnalyticsFilter) (ResponseStats, error) {
	defer timeQuery("response_stats", "complaint_responses")()
	where, args := buildWhere(scope, filter, "c")

	countQuery := fmt.Sprintf(`
        SELECT COUNT(*)
        FROM complaint_responses r
        JOIN complaints c ON c.id = r.complaint_id
        WHERE %s
    `, where)

	avgQuery := fmt.Sprintf(`
        SELECT AVG(EXTRACT(EPOCH FROM (fr.created_at - c.created_at)) / 3600)
        FROM complaints c
        JOIN LATERAL (
            SELECT MIN(created_at) AS created_at
            FROM complaint_responses
            WHERE complaint_id = c.id
        ) fr ON fr.created_at IS NOT NULL
        WHERE %s
    `, where)

	var stats ResponseStats
	err := db.WithRetry(func() error {
		return r.db.QueryRow(countQuery, args...).Scan(&stats.TotalResponses)
	})
	if err != nil {
		return ResponseStats{}, err
	}

	var avg sql.NullFloat64
	err = db.WithRetry(func() error {
		return r.db.QueryRow(avgQuery, args...).Scan(&avg)
	})
	if err != nil {
		return ResponseStats{}, err
	}
	stats.AvgFirstResponseHours = avg.Float64
	return stats, nil
}
