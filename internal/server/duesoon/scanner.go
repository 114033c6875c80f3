// Package duesoon sends reminders ahead of schedule starts and todo deadlines.
//
// A Scanner runs once per tick. It loads every entity due within the horizon,
// expands it into (entity, recipient, lead time) candidates and fires the
// candidates whose fire time lies within the tolerance window around now.
// A dedup.Guard makes sure a candidate fires once even though consecutive
// ticks observe it again.
package duesoon

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/common"
	"github.com/dmitrijs2005/teamboard/internal/logging"
	"github.com/dmitrijs2005/teamboard/internal/server/dedup"
	"github.com/dmitrijs2005/teamboard/internal/server/dispatch"
	"github.com/dmitrijs2005/teamboard/internal/server/models"
	"github.com/dmitrijs2005/teamboard/internal/server/preferences"
	"golang.org/x/sync/errgroup"
)

// releaseTimeout bounds handing a dedup key back after a failed send.
const releaseTimeout = 5 * time.Second

// Loader lists entities whose deadline falls within [from, to].
type Loader interface {
	ListDue(ctx context.Context, from, to time.Time) ([]*models.DueItem, error)
}

// PreferenceResolver is satisfied by *preferences.Resolver.
type PreferenceResolver interface {
	Resolve(ctx context.Context, userID, teamID string, cat preferences.Category) (preferences.Preference, error)
}

// AddressLookup returns common.ErrorNotFound when a user has no device.
type AddressLookup interface {
	FindAddress(ctx context.Context, userID string) (string, error)
}

// Family describes one kind of due entity.
type Family struct {
	Name     string
	Category preferences.Category
	Loader   Loader
	// Message renders the reminder for item fired offset minutes ahead.
	Message func(item *models.DueItem, offset int) dispatch.Message
}

// Options tune a Scanner.
type Options struct {
	Horizon         time.Duration
	Tolerance       time.Duration
	DispatchTimeout time.Duration
	Workers         int
	// RetryFailedDeliveries releases the dedup key when a send fails so the
	// next tick inside the tolerance window tries again.
	RetryFailedDeliveries bool
}

// TickStats summarises one pass.
type TickStats struct {
	Entities int
	Sent     int
	Failed   int
	Evicted  int
}

type Scanner struct {
	family     Family
	resolver   PreferenceResolver
	addresses  AddressLookup
	guard      dedup.Guard
	dispatcher dispatch.Dispatcher
	opts       Options
	log        logging.Logger
	now        func() time.Time
}

func NewScanner(f Family, r PreferenceResolver, a AddressLookup, g dedup.Guard, d dispatch.Dispatcher, opts Options, log logging.Logger) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Scanner{
		family:     f,
		resolver:   r,
		addresses:  a,
		guard:      g,
		dispatcher: d,
		opts:       opts,
		log:        log.With("module", "duesoon", "family", f.Name),
		now:        time.Now,
	}
}

// Name identifies the scanner as a scheduler task.
func (s *Scanner) Name() string {
	return "duesoon-" + s.family.Name
}

// Run performs one tick at the current time.
func (s *Scanner) Run(ctx context.Context) error {
	stats, err := s.Tick(ctx, s.now())
	if err != nil {
		return err
	}
	if stats.Sent > 0 || stats.Failed > 0 {
		s.log.Info(ctx, "tick finished", "entities", stats.Entities, "sent", stats.Sent, "failed", stats.Failed, "evicted", stats.Evicted)
	}
	return nil
}

// Tick performs one full pass as of now. Only a failure to load entities
// is returned; per-recipient failures are logged and skipped.
func (s *Scanner) Tick(ctx context.Context, now time.Time) (TickStats, error) {
	var stats TickStats

	items, err := s.family.Loader.ListDue(ctx, now, now.Add(s.opts.Horizon))
	if err != nil {
		return stats, fmt.Errorf("list due %s: %w", s.family.Name, err)
	}
	stats.Entities = len(items)

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, item := range items {
		for _, recipient := range item.Recipients {
			item, recipient := item, recipient // per-iteration copy; go.mod targets go1.21 loop semantics
			g.Go(func() error {
				ok, bad := s.notify(gctx, now, item, recipient)
				sent.Add(int64(ok))
				failed.Add(int64(bad))
				return nil
			})
		}
	}
	_ = g.Wait()

	stats.Sent = int(sent.Load())
	stats.Failed = int(failed.Load())

	evicted, err := s.guard.Evict(ctx, now.Add(-s.opts.Horizon))
	if err != nil {
		s.log.Warn(ctx, "dedup eviction failed", "error", err)
	}
	stats.Evicted = evicted

	return stats, nil
}

// notify handles one (entity, recipient) pair and returns how many reminders
// were sent and how many failed.
func (s *Scanner) notify(ctx context.Context, now time.Time, item *models.DueItem, recipient string) (sent, failed int) {
	pref, err := s.resolver.Resolve(ctx, recipient, item.TeamID, s.family.Category)
	if err != nil {
		s.log.Warn(ctx, "preference lookup failed", "entity_id", item.ID, "user_id", recipient, "error", err)
		return 0, 0
	}
	if !pref.Enabled {
		return 0, 0
	}

	var address string
	for _, offset := range pref.Offsets {
		if !s.inWindow(now, item.DueAt, offset) {
			continue
		}

		if address == "" {
			address, err = s.addresses.FindAddress(ctx, recipient)
			if err != nil {
				if !errors.Is(err, common.ErrorNotFound) {
					s.log.Warn(ctx, "address lookup failed", "user_id", recipient, "error", err)
				}
				return sent, failed
			}
		}

		key := dedup.Key{EntityID: item.ID, RecipientID: recipient, Offset: offset}
		claimed, err := s.guard.Claim(ctx, key, now)
		if err != nil {
			s.log.Warn(ctx, "dedup claim failed", "key", key.String(), "error", err)
			continue
		}
		if !claimed {
			continue
		}

		if err := s.send(ctx, address, item, offset); err != nil {
			failed++
			s.log.Warn(ctx, "notification delivery failed", "key", key.String(), "error", err)
			// A send cut short by the tick deadline was never judged by the
			// gateway, so its key is always handed back.
			if s.opts.RetryFailedDeliveries || ctx.Err() != nil {
				s.release(ctx, key)
			}
			continue
		}
		sent++
	}
	return sent, failed
}

// release drops key so a later tick can claim it again. It runs detached
// from ctx because ctx may already be cancelled.
func (s *Scanner) release(ctx context.Context, key dedup.Key) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := s.guard.Release(rctx, key); err != nil {
		s.log.Warn(ctx, "dedup release failed", "key", key.String(), "error", err)
	}
}

func (s *Scanner) send(ctx context.Context, address string, item *models.DueItem, offset int) error {
	if s.opts.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.DispatchTimeout)
		defer cancel()
	}
	return s.dispatcher.Send(ctx, address, s.message(item, offset))
}

// inWindow reports whether due minus offset minutes lies strictly inside
// (now - tolerance, now + tolerance).
func (s *Scanner) inWindow(now, due time.Time, offset int) bool {
	fireAt := due.Add(-time.Duration(offset) * time.Minute)
	return fireAt.After(now.Add(-s.opts.Tolerance)) && fireAt.Before(now.Add(s.opts.Tolerance))
}

func (s *Scanner) message(item *models.DueItem, offset int) dispatch.Message {
	if s.family.Message != nil {
		return s.family.Message(item, offset)
	}
	return dispatch.Message{
		Title: item.Title,
		Body:  fmt.Sprintf("due in %d minutes", offset),
		Data:  baseData(s.family.Name, item, offset),
	}
}

func baseData(family string, item *models.DueItem, offset int) map[string]string {
	return map[string]string{
		"type":    family,
		"id":      item.ID,
		"teamId":  item.TeamID,
		"minutes": strconv.Itoa(offset),
	}
}
