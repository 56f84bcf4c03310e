package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"adoptm3/models"

	"gorm.io/gorm"
)

// Summary counts what a user recorded during one month.
type Summary struct {
	Username        string
	Month           string
	Clients         int64
	Relics          int64
	OwnedRelics     int64
	PaidAdoptions   int64
	UnpaidAdoptions int64
}

// Build computes the month-bounded summary for username (month in YYYY-MM).
// OwnedRelics counts relics currently held by the user's client, regardless
// of month.
func Build(ctx context.Context, gdb *gorm.DB, username, month string) (*Summary, []models.Adoption, error) {
	var user models.User
	if err := gdb.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, nil, fmt.Errorf("user %s: %w", username, err)
	}
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	q := gdb.WithContext(ctx)
	s := &Summary{Username: user.Username, Month: month}
	if err := q.Model(&models.Client{}).Where("created_by_id = ? AND register_date >= ? AND register_date < ?", user.ID, start, end).Count(&s.Clients).Error; err != nil {
		return nil, nil, err
	}
	if err := q.Model(&models.Relic{}).Where("created_by_id = ? AND created_at >= ? AND created_at < ?", user.ID, start, end).Count(&s.Relics).Error; err != nil {
		return nil, nil, err
	}
	if err := q.Model(&models.Relic{}).Where("client_id IN (?)", q.Model(&models.Client{}).Select("id").Where("user_id = ?", user.ID)).Count(&s.OwnedRelics).Error; err != nil {
		return nil, nil, err
	}

	var rows []models.Adoption
	if err := q.Where("created_by_id = ? AND adoption_date >= ? AND adoption_date < ?", user.ID, start, end).Order("id").Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("fetch adoptions: %w", err)
	}
	for _, a := range rows {
		if a.PaymentStatus {
			s.PaidAdoptions++
		} else {
			s.UnpaidAdoptions++
		}
	}
	return s, rows, nil
}

// RunReport prints the summary for username and optionally lists the
// month's adoptions.
func RunReport(ctx context.Context, gdb *gorm.DB, w io.Writer, username, month string, list bool) error {
	s, rows, err := Build(ctx, gdb, username, month)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Report for user=%s month=%s (UTC):\n", s.Username, s.Month)
	fmt.Fprintf(w, "  clients=%d relics=%d owned_relics=%d\n", s.Clients, s.Relics, s.OwnedRelics)
	fmt.Fprintf(w, "  adoptions=%d paid=%d unpaid=%d\n", len(rows), s.PaidAdoptions, s.UnpaidAdoptions)
	if list {
		for _, a := range rows {
			relic := "-"
			if a.RelicID != nil {
				relic = fmt.Sprint(*a.RelicID)
			}
			fmt.Fprintf(w, "%d|%s|%d->%d|%v|%s\n", a.ID, relic, a.PreviousOwnerID, a.NewOwnerID, a.PaymentStatus, a.AdoptionDate.Format(time.RFC3339))
		}
	}
	return nil
}
