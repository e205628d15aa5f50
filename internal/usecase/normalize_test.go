package usecase

import (
	"testing"
	"time"

	"marketpulse/internal/domain/models"
)

func TestHistoryFromRowsWalksWeekdays(t *testing.T) {
	// Friday 2026-08-28; the same weekday recurs every 7 days back.
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	rows := []models.JobRow{
		{"data": "2026-08-07", "Кол-во заказов": 80.0},
		{"data": "2026-08-14", "Кол-во заказов": 90.0},
		{"data": "2026-08-20", "Кол-во заказов": 999.0}, // Thursday, skipped
		{"data": "2026-08-21", "Кол-во заказов": 100.0},
		{"data": "2026-08-27", "Кол-во заказов": 999.0}, // Thursday, skipped
		{"data": "2026-08-28", "Кол-во заказов": 110.0},
	}

	points := historyFromRows(rows, now)
	if len(points) != 4 {
		t.Fatalf("points = %d, want 4: %+v", len(points), points)
	}
	wantOrders := []int{110, 100, 90, 80}
	for i, want := range wantOrders {
		if points[i].Orders != want {
			t.Errorf("points[%d].Orders = %d, want %d", i, points[i].Orders, want)
		}
	}
	if points[0].Date.Format("2006-01-02") != "2026-08-28" {
		t.Errorf("points[0].Date = %v", points[0].Date)
	}
}

func TestHistoryFromRowsSkipsUnparseableDates(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	rows := []models.JobRow{
		{"data": "not a date", "Кол-во заказов": 5},
		{"data": "2026-08-28", "Кол-во заказов": 7},
	}

	points := historyFromRows(rows, now)
	if len(points) != 1 || points[0].Orders != 7 {
		t.Errorf("points = %+v", points)
	}
}

func TestProblemRegionsKeepsNegativeDynamics(t *testing.T) {
	rows := []models.JobRow{
		{
			"organization_name": `<div class="bg">Москва</div>`,
			"Кол-во заказов":    `<span>Заказы: 120 (<b>+5.2%</b>)</span>`,
		},
		{
			"organization_name": `<div>СПб</div>`,
			"Кол-во заказов":    `<span>Заказы: 40 (<b>-12.5%</b>)</span>`,
		},
		{
			"organization_name": `<div>Казань</div>`,
			"Кол-во заказов":    `без динамики`,
		},
	}

	problems := problemRegionsFromRows(rows)
	if len(problems) != 1 {
		t.Fatalf("problems = %+v", problems)
	}
	got := problems[0]
	if got.Region != "СПб" || got.Orders != 40 || got.ChangePct != -12.5 {
		t.Errorf("problem = %+v", got)
	}
}

func TestSchedulesFromRowsSumsFormedOnly(t *testing.T) {
	schedules := map[string]int{}
	schedulesFromRows([]models.JobRow{
		{"rk": "Москва", "status_name": scheduleReady, "num": 3.0},
		{"rk": "Москва", "status_name": scheduleReady, "num": 2.0},
		{"rk": "Москва", "status_name": "Черновик", "num": 9.0},
		{"rk": "СПб", "status_name": "Черновик", "num": 4.0},
	}, schedules)

	if schedules["Москва"] != 5 {
		t.Errorf("Москва = %d, want 5", schedules["Москва"])
	}
	if v, ok := schedules["СПб"]; !ok || v != 0 {
		t.Errorf("СПб = %d (present %v), want 0 present", v, ok)
	}
}

func TestDiscrepancyFromRowsCoercesDefaults(t *testing.T) {
	rows := []models.JobRow{
		{"РК": "Москва", "1С": 10.0, "Ecom": 9.0, "Доля схождений": 90.0},
		{"РК": "СПб", "Ecom": 4.0},
		{"1С": 1.0}, // no region, dropped
	}

	got := discrepancyFromRows(rows)
	if len(got) != 2 {
		t.Fatalf("rows = %+v", got)
	}
	if got["Москва"] != (models.StoreDiscrepancy{DB: 10, Live: 9, ConvergencePct: 90}) {
		t.Errorf("Москва = %+v", got["Москва"])
	}
	spb := got["СПб"]
	if spb.DB != 0 || spb.Live != 4 || spb.ConvergencePct != 100.0 {
		t.Errorf("СПб = %+v", spb)
	}
}
