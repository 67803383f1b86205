package position

import (
	"context"
	"errors"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

// Handle identifies one continuous-watch subscription.
type Handle string

// Source abstracts the device's location capability.
type Source interface {
	// CurrentPosition resolves one high-accuracy sample or fails with
	// walk.ErrLocationUnavailable or walk.ErrLocationUnsupported.
	CurrentPosition(ctx context.Context) (walk.Position, error)
	// Watch reports every new sample to onSample at the platform's cadence.
	// onError is called on reporting failures; the subscription stays live.
	Watch(onSample func(walk.Position), onError func(error)) (Handle, error)
	// Unwatch ends a subscription. Unknown or released handles are a no-op.
	Unwatch(h Handle)
}

// Unsupported is the source of a platform with no location capability.
type Unsupported struct{}

func (Unsupported) CurrentPosition(context.Context) (walk.Position, error) {
	return walk.Position{}, walk.ErrLocationUnsupported
}

func (Unsupported) Watch(func(walk.Position), func(error)) (Handle, error) {
	return "", walk.ErrLocationUnsupported
}

func (Unsupported) Unwatch(Handle) {}

// IsUnavailable reports whether err is a failed acquisition attempt.
func IsUnavailable(err error) bool {
	return errors.Is(err, walk.ErrLocationUnavailable)
}

// IsUnsupported reports whether err means the platform has no location.
func IsUnsupported(err error) bool {
	return errors.Is(err, walk.ErrLocationUnsupported)
}
