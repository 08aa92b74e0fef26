package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"image-giveaway/middleware"
	"image-giveaway/services"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/message"
)

const keepAliveInterval = 15 * time.Second

// Events streams the caller's notifications as server-sent events.
func (h *GameHandler) Events(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	p := printer(c)
	events, cancel := h.Hub.Subscribe(userID)
	done := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		log.Printf("[SSE] %s connected", userID)
		writeEvents(w, p, events, done, keepAliveInterval)
		log.Printf("[SSE] %s disconnected", userID)
	})
	return nil
}

// writeEvents copies events to w, translated by p, until the channel closes,
// done fires, or a flush fails because the client went away.
func writeEvents(w *bufio.Writer, p *message.Printer, events <-chan services.Event, done <-chan struct{}, keepAlive time.Duration) {
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	w.WriteString(":\n\n")
	if err := w.Flush(); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			ev.Message = p.Sprintf(ev.Message)
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Printf("[SSE] encode %s event: %v", ev.Type, err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, payload)
		case <-ticker.C:
			w.WriteString(":\n\n")
		case <-done:
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}
