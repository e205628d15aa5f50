package redash

import (
	"fmt"
	"time"

	"marketpulse/internal/domain/models"
	"marketpulse/pkg/util"
)

// QueryIDs holds the saved-query and datasource identifiers the report
// jobs run against.
type QueryIDs struct {
	History           int
	ProblemRegions    int
	Schedules         int
	DiscrepancySource int
}

// discrepancySQL compares store counts between the accounting system and
// the live platform per region. Taken from the analytics dashboard.
const discrepancySQL = `with b as ( select marketplace_id, rk_id, rk, addressguid, tvz_1c, tvz_ec from cached_query_8437 where marketplace_id = %d ) select 0 as "РК id", 'Все РК' as "РК", count(tvz_1c) as "1С", count(tvz_ec) as "Ecom", sum(case when tvz_1c > 0 and tvz_ec is null then 1 else 0 end) || ' / ' || sum(case when tvz_1c is null and tvz_ec > 0 then 1 else 0 end) as "Отсутствуют/Лишние (Ecom-1С)", coalesce(round((sum(case when tvz_1c = tvz_ec then 1 else 0 end) - sum(case when tvz_1c is null and tvz_ec > 0 then 1 else 0 end)) * 100.0 / count(tvz_1c), 2), 0.00) as "Доля схождений", datetime('now','+3 hour') as dt from b union select rk_id, rk, count(tvz_1c) as tvz_1c, count(tvz_ec) as tvz_ec, sum(case when tvz_1c > 0 and tvz_ec is null then 1 else 0 end) || ' / ' || sum(case when tvz_1c is null and tvz_ec > 0 then 1 else 0 end) as lc_ec, coalesce(round((sum(case when tvz_1c = tvz_ec then 1 else 0 end) - sum(case when tvz_1c is null and tvz_ec > 0 then 1 else 0 end)) * 100.0 / count(tvz_1c), 2), 0.00) as lc_ec_p, datetime('now','+3 hour') as dt from b where rk is not null and rk <> 'Нет инфо' group by rk_id, rk`

// HistoryJob asks for daily order counts over the last 30 days.
func (q QueryIDs) HistoryJob(mp models.Marketplace, now time.Time) models.JobSpec {
	return models.JobSpec{
		Name:    "history",
		QueryID: q.History,
		Parameters: map[string]interface{}{
			"Период": map[string]string{
				"start": now.AddDate(0, 0, -30).Format(util.DateLayout),
				"end":   now.Format(util.DateLayout),
			},
			"Тип отрезка":      "day",
			"marketplace_name": mp.Name,
		},
	}
}

// ProblemRegionsJob asks for per-region order counts with their dynamics.
func (q QueryIDs) ProblemRegionsJob(mp models.Marketplace) models.JobSpec {
	return models.JobSpec{
		Name:    "problem_regions",
		QueryID: q.ProblemRegions,
		Parameters: map[string]interface{}{
			"marketplace_name": mp.Name,
		},
	}
}

// ScheduleJob asks for delivery schedule states in one region.
func (q QueryIDs) ScheduleJob(mp models.Marketplace, region models.Region) models.JobSpec {
	return models.JobSpec{
		Name:    fmt.Sprintf("schedules_%s", region.Code),
		QueryID: q.Schedules,
		Parameters: map[string]interface{}{
			"Маркетплейс": mp.Name,
			"РК":          region.City,
			"Регион":      []string{"Bce регионы"},
		},
	}
}

// DiscrepancyJob runs the ad-hoc store reconciliation SQL.
func (q QueryIDs) DiscrepancyJob(mp models.Marketplace) models.JobSpec {
	return models.JobSpec{
		Name:         "discrepancy",
		Query:        fmt.Sprintf(discrepancySQL, mp.ID),
		DataSourceID: q.DiscrepancySource,
	}
}
