package hub

import (
	"context"
	"fmt"

	"github.com/shimmeringbee/logwrap"
)

func (h *Hub) sendEvent(event interface{}) {
	select {
	case h.events <- event:
	default:
		h.logger.LogWarn(context.Background(), "Could not send event, channel buffer full.", logwrap.Datum("Event", fmt.Sprintf("%+v", event)))
	}
}

// ReadEvent blocks until an event is available or the context expires.
func (h *Hub) ReadEvent(ctx context.Context) (interface{}, error) {
	select {
	case event := <-h.events:
		return event, nil
	case <-ctx.Done():
		return nil, context.DeadlineExceeded
	}
}
