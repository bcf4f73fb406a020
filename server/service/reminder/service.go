// Package reminder implements the reminder lifecycle: creation with quota
// and cooldown enforcement, the periodic sweeper, delivery fallback, and
// paginated listing.
package reminder

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/time/rate"

	errcode "github.com/hearthbot/remindd/internal/errors"
	"github.com/hearthbot/remindd/internal/observability"
	"github.com/hearthbot/remindd/internal/profile"
	"github.com/hearthbot/remindd/server/timeparse"
	"github.com/hearthbot/remindd/server/timezone"
	"github.com/hearthbot/remindd/store"
)

// listLimit caps how many active reminders one listing fetches.
const listLimit = 50

var dashRunPattern = regexp.MustCompile(`-{3,}`)

var angleBracketReplacer = strings.NewReplacer("<", "\\<", ">", "\\>")

// Service is the user-facing command surface over the reminder store.
type Service struct {
	profile  *profile.Profile
	store    *store.Store
	registry *timezone.Registry
	parser   *timeparse.Parser
	metrics  *observability.Metrics
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	limiters    map[int64]*rate.Limiter
	createLocks map[int64]*sync.Mutex
}

// NewService creates the command service.
func NewService(p *profile.Profile, st *store.Store, registry *timezone.Registry, parser *timeparse.Parser, metrics *observability.Metrics) *Service {
	return &Service{
		profile:     p,
		store:       st,
		registry:    registry,
		parser:      parser,
		metrics:     metrics,
		logger:      slog.Default(),
		now:         time.Now,
		limiters:    map[int64]*rate.Limiter{},
		createLocks: map[int64]*sync.Mutex{},
	}
}

// CreateRequest carries one reminder creation command.
type CreateRequest struct {
	OwnerID int64
	// Phrase is the time expression, e.g. "in 3 hours" or "tomorrow 9:00".
	Phrase string
	// Body is the reminder text. Trailing free text the parser did not
	// consume from Phrase is prepended to it.
	Body string
	// OriginChannelID is the channel the command came from, when any.
	OriginChannelID *int64
}

// Create parses the phrase under the owner's timezone, validates the body,
// enforces quota and cooldown, and persists the reminder.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*store.Reminder, error) {
	zone, err := s.registry.Get(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parser.Parse(req.Phrase, zone.Location)
	if err != nil {
		return nil, err
	}

	body, err := s.sanitizeBody(strings.TrimSpace(strings.TrimSpace(parsed.Residue) + " " + req.Body))
	if err != nil {
		return nil, err
	}

	// Count and insert run under the owner's lock so concurrent creates
	// cannot both pass the quota check.
	ownerLock := s.createLockFor(req.OwnerID)
	ownerLock.Lock()
	defer ownerLock.Unlock()

	activeCount, err := s.store.CountActiveReminders(ctx, req.OwnerID)
	if err != nil {
		return nil, errcode.StoreFailure(err)
	}
	if activeCount >= s.profile.MaxUserReminders {
		return nil, errcode.QuotaExceeded(s.profile.MaxUserReminders)
	}

	reservation := s.limiterFor(req.OwnerID).Reserve()
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return nil, errcode.RateLimited(delay)
	}

	created, err := s.store.CreateReminder(ctx, &store.Reminder{
		UID:             shortuuid.New(),
		OwnerID:         req.OwnerID,
		OriginChannelID: req.OriginChannelID,
		Body:            body,
		DueTs:           parsed.Due.Unix(),
		CreatedTs:       s.now().Unix(),
		Timezone:        zone.Name,
		Status:          store.StatusActive,
		Cadence:         store.Cadence(parsed.Cadence),
	})
	if err != nil {
		return nil, errcode.StoreFailure(err)
	}

	s.logger.Info("reminder created",
		"reminder", created.UID,
		"owner", created.OwnerID,
		"due", time.Unix(created.DueTs, 0).UTC().Format(time.RFC3339),
		"cadence", string(created.Cadence),
	)
	return created, nil
}

// List returns the owner's active reminders, earliest due first.
func (s *Service) List(ctx context.Context, ownerID int64) ([]*store.Reminder, error) {
	status := store.StatusActive
	limit := listLimit
	list, err := s.store.ListReminders(ctx, &store.FindReminder{
		OwnerID: &ownerID,
		Status:  &status,
		Limit:   &limit,
	})
	if err != nil {
		return nil, errcode.StoreFailure(err)
	}
	return list, nil
}

// Cancel cancels the owner's reminder. It returns false when the reminder
// does not exist, belongs to someone else, or already reached a terminal
// state.
func (s *Service) Cancel(ctx context.Context, ownerID int64, id int32) (bool, error) {
	ok, err := s.store.CancelReminder(ctx, id, ownerID)
	if err != nil {
		return false, errcode.StoreFailure(err)
	}
	if ok {
		s.logger.Info("reminder cancelled", "id", id, "owner", ownerID)
	}
	return ok, nil
}

// SetTimezone resolves the zone text and stores it as the owner's preference.
func (s *Service) SetTimezone(ctx context.Context, ownerID int64, text string) (*timezone.Zone, error) {
	return s.registry.Set(ctx, ownerID, text)
}

// FormatDue renders a reminder's due instant under its stored zone.
func (s *Service) FormatDue(r *store.Reminder) string {
	return timezone.FormatIn(time.Unix(r.DueTs, 0), r.Timezone)
}

// sanitizeBody neutralizes markup-sensitive characters and enforces the
// length cap. Over-long bodies are truncated or rejected per configuration.
func (s *Service) sanitizeBody(body string) (string, error) {
	if body == "" {
		return "", errcode.New(errcode.CodeInvalidArgument, "reminder text must not be empty")
	}

	body = angleBracketReplacer.Replace(body)
	body = dashRunPattern.ReplaceAllString(body, "--")

	if utf8.RuneCountInString(body) > s.profile.MaxReminderLength {
		if !s.profile.TruncateLongBodies {
			return "", errcode.New(errcode.CodeInvalidArgument, "reminder text exceeds %d characters", s.profile.MaxReminderLength)
		}
		runes := []rune(body)
		body = string(runes[:s.profile.MaxReminderLength])
	}
	return body, nil
}

// createLockFor returns the owner's creation lock, making one on first use.
func (s *Service) createLockFor(ownerID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.createLocks[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		s.createLocks[ownerID] = lock
	}
	return lock
}

// limiterFor returns the owner's creation limiter, making one on first use.
func (s *Service) limiterFor(ownerID int64) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters[ownerID]
	if !ok {
		interval := s.profile.CooldownPeriod / time.Duration(s.profile.CooldownRate)
		limiter = rate.NewLimiter(rate.Every(interval), s.profile.CooldownRate)
		s.limiters[ownerID] = limiter
	}
	return limiter
}
