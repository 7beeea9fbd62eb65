package soundbig

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/toksikk/soundbig/internal/soundboard"
)

const draftTTL = time.Hour

var errDraftNotFound = errors.New("draft not found")

// draft is a combination that is being put together and not saved yet.
type draft struct {
	ID      string
	GuildID string
	Name    string
	Sounds  []soundboard.Sound
	Created time.Time
}

func (d *draft) soundIDs() []string {
	ids := make([]string, len(d.Sounds))
	for i, s := range d.Sounds {
		ids[i] = s.ID
	}
	return ids
}

type draftRegistry struct {
	mu     sync.Mutex
	drafts map[string]*draft
	now    func() time.Time
}

func newDraftRegistry() *draftRegistry {
	return &draftRegistry{drafts: make(map[string]*draft), now: time.Now}
}

// create starts a new draft and drops expired ones
func (r *draftRegistry) create(guildID, name string) *draft {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, d := range r.drafts {
		if now.Sub(d.Created) > draftTTL {
			delete(r.drafts, id)
		}
	}

	d := &draft{ID: uuid.NewString(), GuildID: guildID, Name: name, Created: now}
	r.drafts[d.ID] = d
	return d
}

func (r *draftRegistry) lookup(guildID, id string) (*draft, bool) {
	d, ok := r.drafts[id]
	if !ok || d.GuildID != guildID || r.now().Sub(d.Created) > draftTTL {
		return nil, false
	}
	return d, true
}

// add appends a sound and returns the new draft length
func (r *draftRegistry) add(guildID, id string, s soundboard.Sound) (*draft, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.lookup(guildID, id)
	if !ok {
		return nil, 0, errDraftNotFound
	}
	d.Sounds = append(d.Sounds, s)
	return d, len(d.Sounds), nil
}

// take removes the draft and returns a copy for saving
func (r *draftRegistry) take(guildID, id string) (draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.lookup(guildID, id)
	if !ok {
		return draft{}, errDraftNotFound
	}
	delete(r.drafts, id)
	return *d, nil
}

// restore puts a draft back after a failed save
func (r *draftRegistry) restore(d draft) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[d.ID] = &d
}

func (r *draftRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}
