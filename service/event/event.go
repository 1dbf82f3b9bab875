package event

import (
	"time"

	"github.com/viant/minikernel/internal/clock"
	"github.com/viant/minikernel/internal/idgen"
)

// Event wraps a kernel notification payload
type Event[T any] struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Tick      int       `json:"tick"`
	CreatedAt time.Time `json:"createdAt"`
	Data      T         `json:"data"`
}

// NewEvent creates an event of eventType observed at tick
func NewEvent[T any](eventType string, tick int, data T) *Event[T] {
	return &Event[T]{
		ID:        idgen.New(),
		Type:      eventType,
		Tick:      tick,
		CreatedAt: clock.Now(),
		Data:      data,
	}
}
