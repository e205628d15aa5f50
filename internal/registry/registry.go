package registry

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"marketpulse/internal/domain/models"
	"marketpulse/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// record is the wire shape of one registry line.
type record struct {
	Active  bool     `json:"active"`
	ID      int      `json:"id" validate:"required,gt=0"`
	GUID    string   `json:"guid" validate:"required"`
	Name    string   `json:"name" validate:"required"`
	ELKName string   `json:"elk_name" validate:"required"`
	Regions []string `json:"regions" validate:"required,min=1"`
	Env     string   `json:"env" validate:"required,oneof=LTS LATEST POLZA"`
}

// FileRegistry reads and appends marketplace records stored as one JSON
// object per line.
type FileRegistry struct {
	path     string
	validate *validator.Validate
	log      *logger.Logger
}

func NewFileRegistry(path string, log *logger.Logger) *FileRegistry {
	return &FileRegistry{
		path:     path,
		validate: validator.New(),
		log:      log,
	}
}

// List reads all valid records. Malformed lines are logged and skipped so
// one bad entry does not take the whole registry down.
func (r *FileRegistry) List(_ context.Context) ([]models.Marketplace, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()

	var marketplaces []models.Marketplace
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		mp, err := r.parseLine(text)
		if err != nil {
			r.log.Warn("registry: skipping record",
				logger.Int("line", line),
				logger.Error(err),
			)
			continue
		}
		marketplaces = append(marketplaces, mp)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return marketplaces, nil
}

// Find returns the active marketplace with the given name.
func (r *FileRegistry) Find(ctx context.Context, name string) (models.Marketplace, error) {
	marketplaces, err := r.List(ctx)
	if err != nil {
		return models.Marketplace{}, err
	}
	for _, mp := range marketplaces {
		if mp.Name == name && mp.Active {
			return mp, nil
		}
	}
	return models.Marketplace{}, fmt.Errorf("marketplace %q not found or inactive", name)
}

// Append validates and writes one record at the end of the file.
func (r *FileRegistry) Append(_ context.Context, mp models.Marketplace) error {
	rec := record{
		Active:  mp.Active,
		ID:      mp.ID,
		GUID:    mp.GUID,
		Name:    mp.Name,
		ELKName: mp.ELKName,
		Env:     string(mp.Env),
	}
	for _, region := range mp.Regions {
		rec.Regions = append(rec.Regions, region.Code)
	}
	if err := r.validate.Struct(&rec); err != nil {
		return fmt.Errorf("validate record: %w", err)
	}
	if _, err := r.toMarketplace(rec); err != nil {
		return err
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func (r *FileRegistry) parseLine(text string) (models.Marketplace, error) {
	var rec record
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return models.Marketplace{}, fmt.Errorf("parse json: %w", err)
	}
	if err := r.validate.Struct(&rec); err != nil {
		return models.Marketplace{}, fmt.Errorf("validate: %w", err)
	}
	return r.toMarketplace(rec)
}

func (r *FileRegistry) toMarketplace(rec record) (models.Marketplace, error) {
	env, err := models.ParseEnv(rec.Env)
	if err != nil {
		return models.Marketplace{}, err
	}

	regions := make([]models.Region, 0, len(rec.Regions))
	for _, code := range rec.Regions {
		region, ok := models.RegionByCode(code)
		if !ok {
			return models.Marketplace{}, fmt.Errorf("unknown region %q", code)
		}
		regions = append(regions, region)
	}

	return models.Marketplace{
		Active:  rec.Active,
		ID:      rec.ID,
		GUID:    rec.GUID,
		Name:    rec.Name,
		ELKName: rec.ELKName,
		Env:     env,
		Regions: regions,
	}, nil
}
