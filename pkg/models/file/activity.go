package file

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/aesanjagral/caseledger/pkg/models"
)

const activityTimeFormat = "2006-01-02 15:04:05"

// retention window for the activity log
const activityRetention = 30 * 24 * time.Hour

// ActivityModel keeps the append-only activity log in its own flat file.
type ActivityModel struct {
	Path string

	mu sync.Mutex
}

func (m *ActivityModel) load() ([]models.Activity, error) {
	data, err := os.ReadFile(m.Path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Activity{}, nil
	}
	if err != nil {
		return nil, err
	}
	var activities []models.Activity
	if err := json.Unmarshal(data, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

func (m *ActivityModel) save(activities []models.Activity) error {
	data, err := json.MarshalIndent(activities, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.Path, data, 0644)
}

// prune drops activities older than the retention window. Entries with
// unreadable timestamps are dropped with them.
func prune(activities []models.Activity, now time.Time) []models.Activity {
	kept := []models.Activity{}
	for _, a := range activities {
		at, err := time.Parse(activityTimeFormat, a.Datetime)
		if err != nil {
			continue
		}
		if now.Sub(at) <= activityRetention {
			kept = append(kept, a)
		}
	}
	return kept
}

// Log appends one activity entry, pruning expired entries on the way.
func (m *ActivityModel) Log(module, action, details string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	activities, err := m.load()
	if err != nil {
		return err
	}
	now := time.Now()
	activities = prune(activities, now)
	activities = append(activities, models.Activity{
		Datetime: now.Format(activityTimeFormat),
		Module:   module,
		Action:   action,
		Details:  details,
	})
	return m.save(activities)
}

// Recent returns the newest limit activities; limit <= 0 returns all.
func (m *ActivityModel) Recent(limit int) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	activities, err := m.load()
	if err != nil {
		return nil, err
	}
	activities = prune(activities, time.Now())
	if limit > 0 && len(activities) > limit {
		activities = activities[len(activities)-limit:]
	}
	return activities, nil
}

// Purge rewrites the log without the expired entries.
func (m *ActivityModel) Purge() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	activities, err := m.load()
	if err != nil {
		return err
	}
	return m.save(prune(activities, time.Now()))
}
