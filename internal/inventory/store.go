package inventory

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/frontdesk/checkin-backend/internal/session"
)

// Room is the gorm model backing the room side of the read contract.
type Room struct {
	Number   string `gorm:"primaryKey"`
	Tier     string `gorm:"index"`
	Occupied bool
}

type Locker struct {
	Number   string `gorm:"primaryKey"`
	Occupied bool
}

type gormReader struct {
	db *gorm.DB
}

// NewGormReader returns a Reader over the rooms and lockers tables.
func NewGormReader(db *gorm.DB) Reader {
	return &gormReader{db: db}
}

// Migrate creates the inventory tables. Intended for main and tests; the
// authoritative schema lives with the inventory service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Room{}, &Locker{}); err != nil {
		return fmt.Errorf("inventory automigrate: %w", err)
	}
	return nil
}

func (r *gormReader) Available(ctx context.Context) (Availability, error) {
	avail := Availability{
		session.RentalStandard: 0,
		session.RentalDouble:   0,
		session.RentalSpecial:  0,
		session.RentalLocker:   0,
	}

	var rows []struct {
		Tier  string
		Count int
	}
	err := r.db.WithContext(ctx).
		Model(&Room{}).
		Select("tier, count(*) as count").
		Where("occupied = ?", false).
		Group("tier").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count available rooms: %w", err)
	}
	for _, row := range rows {
		if tier, ok := session.ParseRentalType(row.Tier); ok {
			avail[tier] = row.Count
		}
	}

	var lockers int64
	err = r.db.WithContext(ctx).
		Model(&Locker{}).
		Where("occupied = ?", false).
		Count(&lockers).Error
	if err != nil {
		return nil, fmt.Errorf("count available lockers: %w", err)
	}
	avail[session.RentalLocker] = int(lockers)

	return avail, nil
}
