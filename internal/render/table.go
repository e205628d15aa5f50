package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"marketpulse/internal/domain/models"
	"marketpulse/pkg/util"
)

// Report writes the consolidated report as a set of console tables.
func Report(w io.Writer, r *models.Report) {
	fmt.Fprintf(w, "Marketplace: %s (%s), generated %s\n\n",
		r.Marketplace, r.Env, r.GeneratedAt.Format("2006-01-02 15:04:05"))

	activity(w, r)
	stores(w, r.Stores)
	cache(w, r.Cache)
	history(w, r.History)
	problemRegions(w, r.ProblemRegions)
	schedules(w, r.Schedules)
	discrepancy(w, r.Discrepancy)
	degraded(w, r.Degraded)
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func activity(w io.Writer, r *models.Report) {
	t := newTable(w, "Activity")
	t.AppendHeader(table.Row{"Signal", "Count", "Window (min)", "Note"})
	for _, row := range []struct {
		name string
		act  models.Activity
	}{
		{"orders", r.Orders},
		{"stocks", r.Stocks},
		{"prices", r.Prices},
	} {
		t.AppendRow(table.Row{row.name, row.act.Count, row.act.WindowMinutes, row.act.Note})
	}
	t.Render()
	fmt.Fprintln(w)
}

func stores(w io.Writer, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	t := newTable(w, "Active stores")
	t.AppendHeader(table.Row{"Region", "Stores"})
	for _, code := range sortedKeys(counts) {
		t.AppendRow(table.Row{code, counts[code]})
	}
	t.Render()
	fmt.Fprintln(w)
}

func cache(w io.Writer, c models.CacheStatus) {
	fmt.Fprintf(w, "Stock cache: %s\n", c.Status)
	if len(c.Detail) == 0 {
		fmt.Fprintln(w)
		return
	}
	t := newTable(w, "Cache detail")
	t.AppendHeader(table.Row{"Region", "DB", "Cache", "Divergence %"})
	for _, region := range sortedKeys(c.Detail) {
		d := c.Detail[region]
		t.AppendRow(table.Row{region, d.DBCount, d.CacheCount, fmt.Sprintf("%.2f", d.Percent)})
	}
	t.Render()
	fmt.Fprintln(w)
}

func history(w io.Writer, points []models.HistoryPoint) {
	if len(points) == 0 {
		return
	}
	t := newTable(w, "Order history (same weekday)")
	t.AppendHeader(table.Row{"Date", "Orders"})
	for _, p := range points {
		t.AppendRow(table.Row{p.Date.Format(util.DateLayout), p.Orders})
	}
	t.Render()
	fmt.Fprintln(w)
}

func problemRegions(w io.Writer, problems []models.RegionDynamics) {
	if len(problems) == 0 {
		fmt.Fprintln(w, "No regions with negative order dynamics.")
		fmt.Fprintln(w)
		return
	}
	t := newTable(w, "Problem regions")
	t.AppendHeader(table.Row{"Region", "Orders", "Change %"})
	for _, p := range problems {
		t.AppendRow(table.Row{p.Region, p.Orders, fmt.Sprintf("%.1f", p.ChangePct)})
	}
	t.Render()
	fmt.Fprintln(w)
}

func schedules(w io.Writer, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	t := newTable(w, "Formed schedules")
	t.AppendHeader(table.Row{"Region", "Schedules"})
	for _, region := range sortedKeys(counts) {
		t.AppendRow(table.Row{region, counts[region]})
	}
	t.Render()
	fmt.Fprintln(w)
}

func discrepancy(w io.Writer, d map[string]models.StoreDiscrepancy) {
	if len(d) == 0 {
		return
	}
	t := newTable(w, "Store reconciliation")
	t.AppendHeader(table.Row{"Region", "1C", "Ecom", "Convergence %"})
	for _, region := range sortedKeys(d) {
		row := d[region]
		t.AppendRow(table.Row{region, row.DB, row.Live, fmt.Sprintf("%.2f", row.ConvergencePct)})
	}
	t.Render()
	fmt.Fprintln(w)
}

func degraded(w io.Writer, reasons map[string]string) {
	if len(reasons) == 0 {
		return
	}
	t := newTable(w, "Degraded sections")
	t.AppendHeader(table.Row{"Section", "Reason"})
	for _, section := range sortedKeys(reasons) {
		t.AppendRow(table.Row{section, reasons[section]})
	}
	t.Render()
	fmt.Fprintln(w)
}

// Marketplaces writes the registry listing.
func Marketplaces(w io.Writer, marketplaces []models.Marketplace) {
	t := newTable(w, "Marketplaces")
	t.AppendHeader(table.Row{"Active", "ID", "Name", "Env", "Regions"})
	for _, mp := range marketplaces {
		t.AppendRow(table.Row{mp.Active, mp.ID, mp.Name, mp.Env, len(mp.Regions)})
	}
	t.Render()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
