// Package timezone resolves user-supplied timezone text to canonical zones
// and keeps per-user preferences behind a write-through cache.
package timezone

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	errcode "github.com/hearthbot/remindd/internal/errors"
	"github.com/hearthbot/remindd/store"
)

// Zone is a resolved timezone: its canonical name and loaded location.
type Zone struct {
	Name     string
	Location *time.Location
}

// UTC is the default zone for users without a stored preference.
var UTC = &Zone{Name: "UTC", Location: time.UTC}

// displayLayout renders an instant as "02 June 2025 15:04 UTC (Monday - 15:04)".
const displayLayout = "02 January 2006 15:04 MST (Monday - 15:04)"

var offsetPattern = regexp.MustCompile(`^(?i)(?:utc|gmt)\s*([+-])\s*(\d{1,2})(?::([0-5]\d))?$`)

// Offset bounds follow the real UTC offset range.
const (
	maxEastOffset = 14 * time.Hour
	maxWestOffset = 12 * time.Hour
)

// Resolve turns timezone text into a canonical zone. Accepted inputs are
// IANA names, fixed offsets of the form UTC±H[:MM], and the built-in alias
// vocabulary (country names, ISO codes, flags, abbreviations, dialing
// codes). Anything else is invalid.
func Resolve(text string) (*Zone, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errcode.InvalidTimezone(text)
	}

	if strings.EqualFold(text, "utc") {
		return UTC, nil
	}

	// IANA names pass through.
	if strings.Contains(text, "/") {
		if loc, err := time.LoadLocation(text); err == nil {
			return &Zone{Name: text, Location: loc}, nil
		}
	}

	if zone, ok := resolveOffset(text); ok {
		return zone, nil
	}

	key := strings.ToLower(text)
	name, ok := aliases[key]
	if !ok {
		// Flag glyphs and dialing codes are stored verbatim.
		name, ok = aliases[text]
	}
	if !ok {
		return nil, errcode.InvalidTimezone(text)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errcode.InvalidTimezone(text)
	}
	return &Zone{Name: name, Location: loc}, nil
}

// resolveOffset parses UTC±H[:MM]. Offsets outside [-12:00, +14:00] are
// invalid; UTC-0 resolves identically to UTC+0.
func resolveOffset(text string) (*Zone, bool) {
	matches := offsetPattern.FindStringSubmatch(text)
	if matches == nil {
		return nil, false
	}

	hours, _ := strconv.Atoi(matches[2])
	minutes := 0
	if matches[3] != "" {
		minutes, _ = strconv.Atoi(matches[3])
	}

	offset := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	sign := matches[1]
	if sign == "-" && offset > 0 {
		if offset > maxWestOffset {
			return nil, false
		}
		offset = -offset
	} else if offset > maxEastOffset {
		return nil, false
	}

	name := formatOffset(offset)
	return &Zone{Name: name, Location: time.FixedZone(name, int(offset/time.Second))}, true
}

// formatOffset renders a fixed offset canonically, e.g. "UTC+5:30", "UTC-4",
// "UTC+0".
func formatOffset(offset time.Duration) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours := int(offset / time.Hour)
	minutes := int(offset % time.Hour / time.Minute)
	if minutes == 0 {
		return fmt.Sprintf("UTC%s%d", sign, hours)
	}
	return fmt.Sprintf("UTC%s%d:%02d", sign, hours, minutes)
}

// Registry serves per-user timezone preferences with a write-through cache
// over the store. The cache is read-mostly; Set is its only writer.
type Registry struct {
	store *store.Store

	mu    sync.RWMutex
	cache map[int64]*Zone
}

// NewRegistry creates a registry backed by the given store.
func NewRegistry(st *store.Store) *Registry {
	return &Registry{
		store: st,
		cache: make(map[int64]*Zone),
	}
}

// Get returns the user's preferred zone. Cache hits return immediately;
// misses read through to the store. Users without a stored preference get
// UTC, and that absence is not cached.
func (r *Registry) Get(ctx context.Context, userID int64) (*Zone, error) {
	r.mu.RLock()
	zone, ok := r.cache[userID]
	r.mu.RUnlock()
	if ok {
		return zone, nil
	}

	pref, err := r.store.GetUserPreference(ctx, userID)
	if err != nil {
		return nil, errcode.StoreFailure(err)
	}
	if pref == nil {
		return UTC, nil
	}

	zone, err = Resolve(pref.Timezone)
	if err != nil {
		// A stored zone that no longer resolves must not break delivery.
		return UTC, nil
	}

	r.mu.Lock()
	r.cache[userID] = zone
	r.mu.Unlock()
	return zone, nil
}

// Set resolves the text, persists the preference, then updates the cache.
// The store is written first so a crash between the two steps leaves only a
// stale cache entry, never a lost write.
func (r *Registry) Set(ctx context.Context, userID int64, text string) (*Zone, error) {
	zone, err := Resolve(text)
	if err != nil {
		return nil, err
	}

	if _, err := r.store.UpsertUserPreference(ctx, &store.UpsertUserPreference{
		UserID:   userID,
		Timezone: zone.Name,
	}); err != nil {
		return nil, errcode.StoreFailure(err)
	}

	r.mu.Lock()
	r.cache[userID] = zone
	r.mu.Unlock()
	return zone, nil
}

// Format renders a UTC instant in the user's zone for display.
func (r *Registry) Format(ctx context.Context, instant time.Time, userID int64) (string, error) {
	zone, err := r.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return instant.In(zone.Location).Format(displayLayout), nil
}

// FormatIn renders an instant in the given zone name, falling back to UTC
// when the name no longer resolves.
func FormatIn(instant time.Time, zoneName string) string {
	zone, err := Resolve(zoneName)
	if err != nil {
		zone = UTC
	}
	return instant.In(zone.Location).Format(displayLayout)
}

// Evict drops cache entries for users not in the given set, bounding cache
// growth to users who still have active reminders.
func (r *Registry) Evict(activeIDs []int64) {
	active := make(map[int64]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.cache {
		if _, ok := active[id]; !ok {
			delete(r.cache, id)
		}
	}
}

// CacheSize returns the number of cached preferences.
func (r *Registry) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
