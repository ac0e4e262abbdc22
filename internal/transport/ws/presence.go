package ws

import (
	"sync"

	"github.com/google/uuid"
)

// Directory maps a user id to the set of live connections that announced
// that identity. A user with several tabs or devices holds several handles;
// the entry disappears when its last handle is gone. Entries are ephemeral
// and process-local: absence means "not reachable right now", never an
// error.
type Directory struct {
	mu      sync.RWMutex
	handles map[uuid.UUID]map[*Client]struct{}
}

func NewDirectory() *Directory {
	return &Directory{
		handles: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Register adds the handle to the user's entry, creating it if absent.
// Reports whether this was the user's first live handle (offline→online).
func (d *Directory) Register(userID uuid.UUID, c *Client) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.handles[userID]
	if !ok {
		set = make(map[*Client]struct{})
		d.handles[userID] = set
	}
	set[c] = struct{}{}
	return !ok
}

// Unregister removes exactly this handle from whatever entry holds it,
// dropping the entry once empty. Reports whether the handle was registered
// at all and whether it was the user's last one (online→offline).
func (d *Directory) Unregister(c *Client) (removed, last bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.handles[c.userID]
	if !ok {
		return false, false
	}
	if _, ok := set[c]; !ok {
		return false, false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(d.handles, c.userID)
		return true, true
	}
	return true, false
}

// Resolve returns a snapshot of the user's live handles. Empty means the
// user is not currently reachable for push.
func (d *Directory) Resolve(userID uuid.UUID) []*Client {
	d.mu.RLock()
	defer d.mu.RUnlock()

	set := d.handles[userID]
	if len(set) == 0 {
		return nil
	}
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	return clients
}

// Snapshot returns every live handle across all users.
func (d *Directory) Snapshot() []*Client {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var clients []*Client
	for _, set := range d.handles {
		for c := range set {
			clients = append(clients, c)
		}
	}
	return clients
}

// Online reports whether the user has at least one live handle.
func (d *Directory) Online(userID uuid.UUID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handles[userID]) > 0
}
