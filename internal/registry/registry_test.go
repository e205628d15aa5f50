package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"marketpulse/internal/domain/models"
	"marketpulse/pkg/logger"
)

func writeRegistry(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marketplaces.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListSkipsMalformedLines(t *testing.T) {
	path := writeRegistry(t, `
{"active":true,"id":42,"guid":"abc-123","name":"apteka","elk_name":"apteka-prod","regions":["MSK","SPB"],"env":"LTS"}
not json at all
{"active":false,"id":7,"guid":"def-456","name":"zdravcity","elk_name":"zdrav-prod","regions":["MSK"],"env":"LATEST"}
{"active":true,"id":0,"guid":"","name":"","elk_name":"","regions":[],"env":"LTS"}
`)

	r := NewFileRegistry(path, logger.Nop())
	got, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Name != "apteka" || got[0].Env != models.EnvLTS {
		t.Errorf("unexpected first record: %+v", got[0])
	}
	if len(got[0].Regions) != 2 || got[0].Regions[0].Code != "MSK" {
		t.Errorf("regions not resolved: %+v", got[0].Regions)
	}
}

func TestListRejectsUnknownRegion(t *testing.T) {
	path := writeRegistry(t,
		`{"active":true,"id":1,"guid":"g","name":"m","elk_name":"e","regions":["NOPE"],"env":"LTS"}`+"\n")

	r := NewFileRegistry(path, logger.Nop())
	got, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("record with unknown region must be skipped, got %d", len(got))
	}
}

func TestFindReturnsOnlyActive(t *testing.T) {
	path := writeRegistry(t, `
{"active":false,"id":1,"guid":"g1","name":"apteka","elk_name":"e1","regions":["MSK"],"env":"LTS"}
{"active":true,"id":2,"guid":"g2","name":"apteka","elk_name":"e2","regions":["SPB"],"env":"LATEST"}
`)

	r := NewFileRegistry(path, logger.Nop())
	mp, err := r.Find(context.Background(), "apteka")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if mp.ID != 2 {
		t.Errorf("expected active record id 2, got %d", mp.ID)
	}

	if _, err := r.Find(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown marketplace")
	}
}

func TestAppendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketplaces.jsonl")
	r := NewFileRegistry(path, logger.Nop())

	msk, _ := models.RegionByCode("MSK")
	mp := models.Marketplace{
		Active:  true,
		ID:      9,
		GUID:    "guid-9",
		Name:    "eapteka",
		ELKName: "eapteka-prod",
		Env:     models.EnvPolza,
		Regions: []models.Region{msk},
	}
	if err := r.Append(context.Background(), mp); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].GUID != "guid-9" || got[0].Env != models.EnvPolza {
		t.Errorf("round trip mismatch: %+v", got[0])
	}
}

func TestAppendRejectsInvalidRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketplaces.jsonl")
	r := NewFileRegistry(path, logger.Nop())

	err := r.Append(context.Background(), models.Marketplace{Name: "no-id"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("invalid record must not touch the file")
	}
}
