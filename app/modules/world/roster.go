package world

import (
	"sort"
	"sync"
	"time"

	"github.com/km-arc/go-gamecore/framework/container"
)

// Player is a connected player.
type Player struct {
	ID       int
	Name     string
	JoinedAt time.Time
}

// Directory tracks who is online.
type Directory interface {
	Join(id int, name string) (Player, bool)
	Leave(id int) (Player, bool)
	Lookup(id int) (Player, bool)
	Online() []Player
}

// Roster is the in-memory Directory.
type Roster struct {
	container.Service `as:"Directory"`

	mu      sync.RWMutex
	players map[int]Player
	now     func() time.Time
}

func NewRoster() *Roster {
	return &Roster{players: make(map[int]Player), now: time.Now}
}

// Join adds a player. It reports false if id is already online.
func (r *Roster) Join(id int, name string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[id]; ok {
		return p, false
	}
	p := Player{ID: id, Name: name, JoinedAt: r.now()}
	r.players[id] = p
	return p, true
}

func (r *Roster) Leave(id int) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	delete(r.players, id)
	return p, ok
}

func (r *Roster) Lookup(id int) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

// Online lists players by id.
func (r *Roster) Online() []Player {
	r.mu.RLock()
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
