package asite

import (
	"context"
	"fmt"
	"time"

	"github.com/eden-ncr/backend/internal/models"
	"github.com/eden-ncr/backend/internal/utils"
)

// MockFetcher produces a deterministic synthetic record set, keyed off the
// project name so demo environments stay stable across restarts.
type MockFetcher struct {
	Count int
	Today time.Time
}

func (m MockFetcher) FetchProjectRecords(_ context.Context, project, form string) ([]models.RawRecord, error) {
	count := m.Count
	if count <= 0 {
		count = 40
	}
	today := m.Today
	if today.IsZero() {
		today = time.Now().UTC().Truncate(24 * time.Hour)
	}

	disciplines := []string{"Structural Works", "Civil Finishing", "Electrical", "HSE"}

	records := make([]models.RawRecord, 0, count)
	for i := 0; i < count; i++ {
		h := utils.HashStringToUint64(fmt.Sprintf("%s/%s/%d", project, form, i))
		tower := 4 + int(h%4)
		n := 1 + int(h/11)%8

		var desc string
		switch int(h/5) % 5 {
		case 0:
			desc = fmt.Sprintf("Honeycombing observed at tower %d pour %d", tower, n)
		case 1:
			desc = fmt.Sprintf("Flat no %d0%d tower %d tile hollowness", n, tower, tower)
		case 2:
			desc = fmt.Sprintf("Debris accumulation near tower %d gate", tower)
		case 3:
			desc = fmt.Sprintf("Worker without helmet at tower %d level %d", tower, n)
		default:
			desc = "Common area drainage line blocked"
		}

		created := today.AddDate(0, 0, -int(10+h%90))
		rec := models.RawRecord{
			Description: desc,
			Discipline:  disciplines[int(h/7)%len(disciplines)],
			Created:     &created,
			Status:      models.StatusOpen,
		}
		if h%3 == 0 {
			closed := created.AddDate(0, 0, int(5+h%40))
			rec.Closed = &closed
			rec.Status = models.StatusClosed
			days := int(closed.Sub(created).Hours() / 24)
			rec.Days = &days
		}
		records = append(records, rec)
	}
	return records, nil
}
