// Package modules wires the game modules into the application.
package modules

import (
	"github.com/km-arc/go-gamecore/app/modules/chat"
	"github.com/km-arc/go-gamecore/app/modules/connection"
	"github.com/km-arc/go-gamecore/app/modules/debug"
	"github.com/km-arc/go-gamecore/app/modules/vehicle"
	"github.com/km-arc/go-gamecore/app/modules/world"
	"github.com/km-arc/go-gamecore/framework/container"
)

// Candidates lists every scannable constructor. Services come before the
// controllers that use them only for readability; Scan does not care.
func Candidates() []any {
	return []any{
		chat.NewOutbox,
		world.NewRoster,
		vehicle.NewStaticCatalog,
		vehicle.NewGarage,

		connection.NewController,
		debug.NewController,
		world.NewController,
		vehicle.NewController,
	}
}

// ServiceProvider declares the module contracts and scans Candidates.
type ServiceProvider struct{ container.BaseProvider }

func (ServiceProvider) Register(b *container.Builder) error {
	if err := b.Contract(
		container.TypeOf[chat.Messenger](),
		container.TypeOf[world.Directory](),
		container.TypeOf[vehicle.Catalog](),
	); err != nil {
		return err
	}
	return b.Scan(Candidates()...)
}
