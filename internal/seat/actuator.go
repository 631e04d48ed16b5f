// Package seat applies driver profiles to the seat actuators on the vehicle
// signal bus.
package seat

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"rita/internal/profile"
)

// Signal names in actuation order.
var DefaultPaths = [3]string{
	"Vehicle.Cabin.Seat.Row1.DriverSide.Position",
	"Vehicle.Cabin.Seat.Row1.DriverSide.Tilt",
	"Vehicle.Cabin.Seat.Row1.DriverSide.Height",
}

var labels = [3]string{"Position", "Tilt", "Height"}

// Setter writes a target value to a vehicle signal.
type Setter interface {
	Set(ctx context.Context, path string, value any) error
}

type Actuator struct {
	bus   Setter
	paths [3]string
	pace  time.Duration
}

func NewActuator(bus Setter, paths [3]string, pace time.Duration) *Actuator {
	for i, p := range paths {
		if p == "" {
			paths[i] = DefaultPaths[i]
		}
	}
	return &Actuator{bus: bus, paths: paths, pace: pace}
}

// Apply writes position, tilt and height one after another, pausing between writes.
func (a *Actuator) Apply(ctx context.Context, p profile.Profile) error {
	values := p.Values()

	for i, path := range a.paths {
		if i > 0 && a.pace > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.pace):
			}
		}

		if err := a.bus.Set(ctx, path, values[i]); err != nil {
			return fmt.Errorf("set %s: %w", labels[i], err)
		}
		log.Info("Seat set", "driver", p.Name, "signal", labels[i], "value", values[i])
	}

	log.Info("Finished setting up driver's seat", "driver", p.Name)
	return nil
}
