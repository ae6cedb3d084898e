package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/i474232898/skimeister/internal/resort"
)

type resortRow struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Slug        string `gorm:"uniqueIndex;not null"`
	Country     string `gorm:"not null;default:Unknown"`
	Region      string
	Latitude    *float64
	Longitude   *float64
	AltitudeMin *int
	AltitudeMax *int
	Website     string
	Description string `gorm:"type:text"`
	SourceURL   string

	Conditions *conditionsRow `gorm:"foreignKey:ResortID;constraint:OnDelete:CASCADE"`
	Pricing    *pricingRow    `gorm:"foreignKey:ResortID;constraint:OnDelete:CASCADE"`
	Forecasts  []forecastRow  `gorm:"foreignKey:ResortID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (resortRow) TableName() string { return "resorts" }

type conditionsRow struct {
	ID                  uint `gorm:"primaryKey"`
	ResortID            uint `gorm:"uniqueIndex;not null"`
	SnowDepthValley     *int
	SnowDepthMountain   *int
	FreshSnow24h        *int `gorm:"column:fresh_snow_24h"`
	FreshSnow48h        *int `gorm:"column:fresh_snow_48h"`
	TemperatureValley   *float64
	TemperatureMountain *float64
	WindSpeed           *int
	Visibility          string
	SlopesOpenKm        *float64
	SlopesTotalKm       *float64
	LiftsOpen           *int
	LiftsTotal          *int
	Status              *string
	LastUpdated         time.Time
}

func (conditionsRow) TableName() string { return "conditions" }

type pricingRow struct {
	ID           uint `gorm:"primaryKey"`
	ResortID     uint `gorm:"uniqueIndex;not null"`
	AdultDayPass *float64
	ChildDayPass *float64
	Currency     string `gorm:"default:CHF"`
	SeasonStart  string
	SeasonEnd    string
	LastUpdated  time.Time
}

func (pricingRow) TableName() string { return "pricing" }

type forecastRow struct {
	ID             uint      `gorm:"primaryKey"`
	ResortID       uint      `gorm:"index;not null"`
	Date           time.Time `gorm:"not null"`
	TempMin        *float64
	TempMax        *float64
	Symbol         string
	SnowForecastCm int `gorm:"not null;default:0"`
}

func (forecastRow) TableName() string { return "forecasts" }

// SQLStore persists resorts in SQLite through gorm.
type SQLStore struct {
	db            *gorm.DB
	defaultStatus resort.Status
	now           func() time.Time
}

// NewSQLStore opens (creating if needed) the database at path and migrates the schema.
func NewSQLStore(path string, defaultStatus resort.Status) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&resortRow{}, &conditionsRow{}, &pricingRow{}, &forecastRow{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &SQLStore{db: db, defaultStatus: defaultStatus, now: time.Now}, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Conditions").
		Preload("Pricing").
		Preload("Forecasts", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC")
		})
}

// UpsertResort merges r into the row sharing its slug. Conditions and pricing
// rows are replaced when r carries them; forecasts when r carries any.
func (s *SQLStore) UpsertResort(ctx context.Context, r resort.Resort) (uint, error) {
	if err := validateForUpsert(r); err != nil {
		return 0, err
	}

	var id uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row resortRow
		existing := resort.Resort{}
		err := withAssociations(tx).Where("slug = ?", r.Slug).First(&row).Error
		switch {
		case err == nil:
			existing = row.toDomain()
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("load resort %s: %w", r.Slug, err)
		}

		merged := resort.Merge(existing, r, s.now().UTC(), s.defaultStatus)
		out := fromDomain(merged)
		out.ID = row.ID
		if err := tx.Omit(clause.Associations).Save(&out).Error; err != nil {
			return fmt.Errorf("save resort %s: %w", r.Slug, err)
		}
		id = out.ID

		if r.Conditions != nil {
			if err := tx.Where("resort_id = ?", id).Delete(&conditionsRow{}).Error; err != nil {
				return fmt.Errorf("clear conditions: %w", err)
			}
			c := conditionsFromDomain(id, *merged.Conditions)
			if err := tx.Create(&c).Error; err != nil {
				return fmt.Errorf("insert conditions: %w", err)
			}
		}

		if r.Pricing != nil {
			if err := tx.Where("resort_id = ?", id).Delete(&pricingRow{}).Error; err != nil {
				return fmt.Errorf("clear pricing: %w", err)
			}
			p := pricingFromDomain(id, *merged.Pricing)
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("insert pricing: %w", err)
			}
		}

		if len(r.Forecasts) > 0 {
			if err := tx.Where("resort_id = ?", id).Delete(&forecastRow{}).Error; err != nil {
				return fmt.Errorf("clear forecasts: %w", err)
			}
			rows := make([]forecastRow, 0, len(merged.Forecasts))
			for _, f := range merged.Forecasts {
				rows = append(rows, forecastFromDomain(id, f))
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("insert forecasts: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListResorts returns every resort with its sub-records, ordered by id.
func (s *SQLStore) ListResorts(ctx context.Context) ([]resort.Resort, error) {
	var rows []resortRow
	if err := withAssociations(s.db.WithContext(ctx)).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list resorts: %w", err)
	}
	out := make([]resort.Resort, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// GetResort returns the resort with the given id.
func (s *SQLStore) GetResort(ctx context.Context, id uint) (resort.Resort, error) {
	var row resortRow
	err := withAssociations(s.db.WithContext(ctx)).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return resort.Resort{}, resort.ErrNotFound
	}
	if err != nil {
		return resort.Resort{}, fmt.Errorf("get resort %d: %w", id, err)
	}
	return row.toDomain(), nil
}

// Stats reports the number of resorts and the distinct countries, sorted.
func (s *SQLStore) Stats(ctx context.Context) (resort.Stats, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&resortRow{}).Count(&total).Error; err != nil {
		return resort.Stats{}, fmt.Errorf("count resorts: %w", err)
	}
	countries := make([]string, 0)
	if err := db.Model(&resortRow{}).Distinct().Order("country").Pluck("country", &countries).Error; err != nil {
		return resort.Stats{}, fmt.Errorf("list countries: %w", err)
	}
	return resort.Stats{TotalResorts: int(total), Countries: countries}, nil
}

func (row resortRow) toDomain() resort.Resort {
	r := resort.Resort{
		ID:          row.ID,
		Name:        row.Name,
		Slug:        row.Slug,
		Country:     row.Country,
		Region:      row.Region,
		Latitude:    row.Latitude,
		Longitude:   row.Longitude,
		AltitudeMin: row.AltitudeMin,
		AltitudeMax: row.AltitudeMax,
		Website:     row.Website,
		Description: row.Description,
		SourceURL:   row.SourceURL,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	if c := row.Conditions; c != nil {
		r.Conditions = &resort.Conditions{
			SnowDepthValley:     c.SnowDepthValley,
			SnowDepthMountain:   c.SnowDepthMountain,
			FreshSnow24h:        c.FreshSnow24h,
			FreshSnow48h:        c.FreshSnow48h,
			TemperatureValley:   c.TemperatureValley,
			TemperatureMountain: c.TemperatureMountain,
			WindSpeed:           c.WindSpeed,
			Visibility:          c.Visibility,
			SlopesOpenKm:        c.SlopesOpenKm,
			SlopesTotalKm:       c.SlopesTotalKm,
			LiftsOpen:           c.LiftsOpen,
			LiftsTotal:          c.LiftsTotal,
			LastUpdated:         c.LastUpdated.UTC(),
		}
		if c.Status != nil {
			r.Conditions.Status = resort.Ptr(resort.Status(*c.Status))
		}
	}
	if p := row.Pricing; p != nil {
		r.Pricing = &resort.Pricing{
			AdultDayPass: p.AdultDayPass,
			ChildDayPass: p.ChildDayPass,
			Currency:     p.Currency,
			SeasonStart:  p.SeasonStart,
			SeasonEnd:    p.SeasonEnd,
			LastUpdated:  p.LastUpdated.UTC(),
		}
	}
	for _, f := range row.Forecasts {
		r.Forecasts = append(r.Forecasts, resort.ForecastDay{
			Date:           f.Date.UTC(),
			TempMin:        f.TempMin,
			TempMax:        f.TempMax,
			Symbol:         f.Symbol,
			SnowForecastCm: f.SnowForecastCm,
		})
	}
	return r
}

func fromDomain(r resort.Resort) resortRow {
	return resortRow{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Country:     r.Country,
		Region:      r.Region,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		AltitudeMin: r.AltitudeMin,
		AltitudeMax: r.AltitudeMax,
		Website:     r.Website,
		Description: r.Description,
		SourceURL:   r.SourceURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func conditionsFromDomain(resortID uint, c resort.Conditions) conditionsRow {
	row := conditionsRow{
		ResortID:            resortID,
		SnowDepthValley:     c.SnowDepthValley,
		SnowDepthMountain:   c.SnowDepthMountain,
		FreshSnow24h:        c.FreshSnow24h,
		FreshSnow48h:        c.FreshSnow48h,
		TemperatureValley:   c.TemperatureValley,
		TemperatureMountain: c.TemperatureMountain,
		WindSpeed:           c.WindSpeed,
		Visibility:          c.Visibility,
		SlopesOpenKm:        c.SlopesOpenKm,
		SlopesTotalKm:       c.SlopesTotalKm,
		LiftsOpen:           c.LiftsOpen,
		LiftsTotal:          c.LiftsTotal,
		LastUpdated:         c.LastUpdated,
	}
	if c.Status != nil {
		row.Status = resort.Ptr(string(*c.Status))
	}
	return row
}

func pricingFromDomain(resortID uint, p resort.Pricing) pricingRow {
	return pricingRow{
		ResortID:     resortID,
		AdultDayPass: p.AdultDayPass,
		ChildDayPass: p.ChildDayPass,
		Currency:     p.Currency,
		SeasonStart:  p.SeasonStart,
		SeasonEnd:    p.SeasonEnd,
		LastUpdated:  p.LastUpdated,
	}
}

func forecastFromDomain(resortID uint, f resort.ForecastDay) forecastRow {
	return forecastRow{
		ResortID:       resortID,
		Date:           f.Date,
		TempMin:        f.TempMin,
		TempMax:        f.TempMax,
		Symbol:         f.Symbol,
		SnowForecastCm: f.SnowForecastCm,
	}
}
