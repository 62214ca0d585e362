package hub

import (
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/golog"
	"log"
)

func (h *Hub) WithGoLogger(parentLogger *log.Logger) {
	h.WithLogWrapLogger(logwrap.New(golog.Wrap(parentLogger)))
}

func (h *Hub) WithLogWrapLogger(lw logwrap.Logger) {
	h.logger = lw
}
