package vehicle

import (
	"sort"
	"sync"
	"time"

	"github.com/km-arc/go-gamecore/framework/container"
)

// Vehicle is a spawned vehicle.
type Vehicle struct {
	ID        int
	Model     Model
	Owner     int
	SpawnedAt time.Time
}

// Garage tracks spawned vehicles.
type Garage struct {
	container.Service

	mu       sync.Mutex
	next     int
	vehicles map[int]Vehicle
	now      func() time.Time
}

func NewGarage() *Garage {
	return &Garage{vehicles: make(map[int]Vehicle), now: time.Now}
}

func (g *Garage) Spawn(owner int, m Model) Vehicle {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	v := Vehicle{ID: g.next, Model: m, Owner: owner, SpawnedAt: g.now()}
	g.vehicles[v.ID] = v
	return v
}

func (g *Garage) Remove(id int) (Vehicle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.vehicles[id]
	delete(g.vehicles, id)
	return v, ok
}

// Owned lists owner's vehicles by id.
func (g *Garage) Owned(owner int) []Vehicle {
	return g.filter(func(v Vehicle) bool { return v.Owner == owner })
}

// All lists every vehicle by id.
func (g *Garage) All() []Vehicle {
	return g.filter(func(Vehicle) bool { return true })
}

func (g *Garage) filter(keep func(Vehicle) bool) []Vehicle {
	g.mu.Lock()
	var out []Vehicle
	for _, v := range g.vehicles {
		if keep(v) {
			out = append(out, v)
		}
	}
	g.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
