package usecase

import (
	"regexp"
	"strings"
	"time"

	"marketpulse/internal/domain/models"
	"marketpulse/pkg/util"
)

// scheduleReady is the status label marking a formed delivery schedule.
const scheduleReady = "Расписание сформировано"

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]+>`)
	orderValRe  = regexp.MustCompile(`:\s*(\d+)`)
	changeValRe = regexp.MustCompile(`\(([^)]+)\)`)
)

func stripTags(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

// historyFromRows picks out the order counts for today's weekday, walking
// back in 7 day steps. Rows arrive oldest first under the "data" date
// column and the count lives in the "Кол-во заказов" column.
func historyFromRows(rows []models.JobRow, now time.Time) []models.HistoryPoint {
	var points []models.HistoryPoint
	target := now.Format(util.DateLayout)

	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		date, ok := util.ParseDate(util.CoerceString(row["data"]))
		if !ok {
			continue
		}
		if date.Format(util.DateLayout) != target {
			continue
		}
		points = append(points, models.HistoryPoint{
			Date:   date,
			Orders: util.CoerceInt(row["Кол-во заказов"]),
		})
		target = date.AddDate(0, 0, -7).Format(util.DateLayout)
	}
	return points
}

// problemRegionsFromRows parses the HTML-decorated dashboard rows and
// keeps only regions whose order dynamics are negative.
func problemRegionsFromRows(rows []models.JobRow) []models.RegionDynamics {
	var problems []models.RegionDynamics
	for _, row := range rows {
		region := stripTags(util.CoerceString(row["organization_name"]))
		orders := stripTags(util.CoerceString(row["Кол-во заказов"]))

		count := 0
		if m := orderValRe.FindStringSubmatch(orders); m != nil {
			count = util.ParseIntDefault(m[1], 0)
		}

		m := changeValRe.FindStringSubmatch(orders)
		if m == nil {
			continue
		}
		change, ok := parseChange(m[1])
		if !ok || change >= 0 {
			continue
		}

		problems = append(problems, models.RegionDynamics{
			Region:    region,
			Orders:    count,
			ChangePct: change,
		})
	}
	return problems
}

// parseChange extracts a signed percentage out of free-form text like
// "↓ -12.5%".
func parseChange(s string) (float64, bool) {
	var b strings.Builder
	for _, c := range s {
		if c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	f, ok := util.ParseFloat(b.String())
	return f, ok
}

// schedulesFromRows sums formed-schedule counts per region. Rows carry the
// region label under "rk", the status under "status_name" and the count
// under "num".
func schedulesFromRows(rows []models.JobRow, into map[string]int) {
	for _, row := range rows {
		rk := util.CoerceString(row["rk"])
		if rk == "" {
			continue
		}
		if _, seen := into[rk]; !seen {
			into[rk] = 0
		}
		if util.CoerceString(row["status_name"]) == scheduleReady {
			into[rk] += util.CoerceInt(row["num"])
		}
	}
}

// discrepancyFromRows maps the store reconciliation rows per region.
// Missing counts coerce to zero; a missing convergence means nothing
// diverged and defaults to one hundred percent.
func discrepancyFromRows(rows []models.JobRow) map[string]models.StoreDiscrepancy {
	out := make(map[string]models.StoreDiscrepancy, len(rows))
	for _, row := range rows {
		region := util.CoerceString(row["РК"])
		if region == "" {
			continue
		}
		out[region] = models.StoreDiscrepancy{
			DB:             util.CoerceInt(row["1С"]),
			Live:           util.CoerceInt(row["Ecom"]),
			ConvergencePct: util.CoerceFloat(row["Доля схождений"], 100.0),
		}
	}
	return out
}
