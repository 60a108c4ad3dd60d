// Package roster reconciles the periodically-fetched contact roster with
// live presence and message events from the realtime channel, producing the
// single consistent view consumers read.
package roster

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/workboardhq/workboard/internal/chat"
	"github.com/workboardhq/workboard/pkg/models"
)

// Source fetches the roster; satisfied by the API client's ChatUsers.
type Source interface {
	ChatUsers(ctx context.Context) ([]models.Contact, error)
}

// Archive receives every message appended to the log; satisfied by the
// history store. Optional.
type Archive interface {
	Append(msg models.ChatMessage) error
}

// Options configures a Reconciler.
type Options struct {
	// Source fetches roster snapshots. Required.
	Source Source
	// Events is the channel manager's event stream. Required.
	Events <-chan chat.Event
	// RefreshSpec is a cron spec for periodic roster refreshes; empty
	// disables them.
	RefreshSpec string
	// Archive mirrors received messages to persistent storage. Optional.
	Archive Archive
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Reconciler merges roster identity data with volatile channel state. All
// mutation happens on the Run goroutine; readers get snapshot copies.
type Reconciler struct {
	source  Source
	events  <-chan chat.Event
	spec    string
	archive Archive
	logger  *slog.Logger

	mu       sync.RWMutex
	contacts map[int64]models.Contact
	messages []models.ChatMessage
	active   int64
	state    chat.State
}

// New builds a reconciler with an empty contact set.
func New(opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		source:   opts.Source,
		events:   opts.Events,
		spec:     opts.RefreshSpec,
		archive:  opts.Archive,
		logger:   logger,
		contacts: make(map[int64]models.Contact),
	}
}

// Run loads the roster, schedules periodic refreshes, and consumes channel
// events until the context ends or the event stream closes. It is the only
// goroutine that mutates reconciler state apart from the cron refresh,
// which touches identity fields under the same lock.
func (r *Reconciler) Run(ctx context.Context) error {
	if err := r.Refresh(ctx); err != nil {
		return fmt.Errorf("initial roster load: %w", err)
	}

	if r.spec != "" {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(r.spec, func() {
			if err := r.Refresh(ctx); err != nil {
				r.logger.Warn("roster refresh failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid roster refresh spec %q: %w", r.spec, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-r.events:
			if !ok {
				return nil
			}
			r.apply(event)
		}
	}
}

// Refresh fetches a fresh roster snapshot and merges it: identity fields
// are upserted, contacts missing from the snapshot are removed, and the
// volatile online flag is left exactly as the live events set it.
func (r *Reconciler) Refresh(ctx context.Context) error {
	fetched, err := r.source.ChatUsers(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[int64]bool, len(fetched))
	for _, contact := range fetched {
		seen[contact.ID] = true
		if existing, ok := r.contacts[contact.ID]; ok {
			existing.DisplayName = contact.DisplayName
			r.contacts[contact.ID] = existing
			continue
		}
		// New contacts start offline regardless of what the fetch claims;
		// presence is owned by the channel.
		r.contacts[contact.ID] = models.Contact{ID: contact.ID, DisplayName: contact.DisplayName}
	}
	for id := range r.contacts {
		if !seen[id] {
			delete(r.contacts, id)
			if r.active == id {
				r.active = 0
			}
		}
	}
	return nil
}

func (r *Reconciler) apply(event chat.Event) {
	switch event.Kind {
	case chat.EventMessage:
		r.appendMessage(*event.Message)
	case chat.EventPresence:
		r.applyPresence(*event.Presence)
	case chat.EventState:
		r.mu.Lock()
		r.state = event.State
		r.mu.Unlock()
	case chat.EventError:
		r.logger.Error("channel gave up", "error", event.Err)
	}
}

func (r *Reconciler) appendMessage(msg models.ChatMessage) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()

	if r.archive != nil {
		if err := r.archive.Append(msg); err != nil {
			r.logger.Warn("archive append failed", "error", err)
		}
	}
}

// applyPresence updates the online flag for a known contact. Events for
// ids absent from the roster are dropped: presence never creates contacts.
func (r *Reconciler) applyPresence(p chat.Presence) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contact, ok := r.contacts[p.ContactID]
	if !ok {
		r.logger.Debug("presence for unknown contact dropped", "id", p.ContactID)
		return
	}
	contact.Online = p.Online
	r.contacts[p.ContactID] = contact
}

// Contacts returns the current roster sorted by id.
func (r *Reconciler) Contacts() []models.Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Contact, 0, len(r.contacts))
	for _, contact := range r.contacts {
		out = append(out, contact)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Messages returns the full message log in arrival order. The log is a
// single shared timeline across all senders; filtering per conversation is
// the view layer's choice.
func (r *Reconciler) Messages() []models.ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ChatMessage, len(r.messages))
	copy(out, r.messages)
	return out
}

// Select makes the given contact the active conversation target. Exactly
// one contact is active at a time; switching never clears the message log.
func (r *Reconciler) Select(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contacts[id]; !ok {
		return fmt.Errorf("unknown contact %d", id)
	}
	r.active = id
	return nil
}

// ActiveTarget returns the selected conversation target, if any.
func (r *Reconciler) ActiveTarget() (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active, r.active != 0
}

// IsActive reports whether id is the selected conversation target. This is
// the channel manager's send guard.
func (r *Reconciler) IsActive(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active != 0 && r.active == id
}

// ChannelState returns the last state transition seen on the event stream.
func (r *Reconciler) ChannelState() chat.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}
