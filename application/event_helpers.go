package application

import (
	"fmt"

	"github.com/botmakerspc/Stars-magnat-bota/events"
)

// AssertEventType asserts an event to a concrete type with a descriptive error
func AssertEventType[T events.Event](event events.Event) (T, error) {
	var zero T

	if e, ok := event.(T); ok {
		return e, nil
	}

	if event == nil {
		return zero, fmt.Errorf("event type assertion failed: expected %T, got nil", zero)
	}
	return zero, fmt.Errorf("event type assertion failed: expected %T, got %T (event.Type()=%s)", zero, event, event.Type())
}
