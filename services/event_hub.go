package services

import (
	"context"
	"encoding/base64"
	"image"
	"log"
	"sync"
	"time"

	"image-giveaway/assets"

	"github.com/google/uuid"
)

type EventType string

const (
	EventPrizeRevealed EventType = "prize_revealed"
	EventWin           EventType = "win"
	EventAlreadyWon    EventType = "already_won"
	EventExhausted     EventType = "prize_exhausted"
	EventResend        EventType = "resend"
	EventAssetMissing  EventType = "asset_missing"
)

const subscriberQueueSize = 16

// Event message keys. They read as English and are translated by the
// transport before delivery.
const (
	MsgPrizeRevealed = "A new prize is up! Be one of the first three to claim it."
	MsgWin           = "Congratulations, the prize is yours!"
	MsgAlreadyWon    = "You already got this prize!"
	MsgExhausted     = "Sorry, three users already took this prize."
	MsgResend        = "Here is your picture again!"
	MsgAssetMissing  = "Sorry, this picture is not available right now."
)

// Event is one outbound message. Message is a message key; Image holds a
// base64 JPEG when present.
type Event struct {
	ID      string    `json:"id"`
	Type    EventType `json:"type"`
	PrizeID uint      `json:"prize_id"`
	Message string    `json:"message"`
	Image   string    `json:"image,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// EventHub is a Notifier that fans events out to live subscribers (the SSE
// stream). Users without an open stream miss the event.
type EventHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a stream for userID. The returned func must be called
// when the stream closes.
func (h *EventHub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberQueueSize)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *EventHub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

func (h *EventHub) send(userID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- ev:
		default:
			log.Printf("[EventHub] dropping %s event for %s: subscriber is not keeping up", ev.Type, userID)
		}
	}
}

func newEvent(t EventType, prizeID uint, message string, img image.Image) (Event, error) {
	ev := Event{ID: uuid.NewString(), Type: t, PrizeID: prizeID, Message: message, SentAt: time.Now().UTC()}
	if img != nil {
		data, err := assets.EncodeJPEG(img)
		if err != nil {
			return ev, err
		}
		ev.Image = base64.StdEncoding.EncodeToString(data)
	}
	return ev, nil
}

func (h *EventHub) OnPrizeRevealed(_ context.Context, prizeID uint, teaser image.Image, recipients []string) error {
	ev, err := newEvent(EventPrizeRevealed, prizeID, MsgPrizeRevealed, teaser)
	if err != nil {
		return err
	}
	for _, userID := range recipients {
		h.send(userID, ev)
	}
	return nil
}

func (h *EventHub) OnWin(_ context.Context, userID string, prizeID uint, full image.Image) error {
	ev, err := newEvent(EventWin, prizeID, MsgWin, full)
	if err != nil {
		return err
	}
	h.send(userID, ev)
	return nil
}

func (h *EventHub) OnAlreadyWon(_ context.Context, userID string, prizeID uint) error {
	ev, _ := newEvent(EventAlreadyWon, prizeID, MsgAlreadyWon, nil)
	h.send(userID, ev)
	return nil
}

func (h *EventHub) OnExhausted(_ context.Context, userID string, prizeID uint) error {
	ev, _ := newEvent(EventExhausted, prizeID, MsgExhausted, nil)
	h.send(userID, ev)
	return nil
}

func (h *EventHub) OnResendDelivered(_ context.Context, userID string, prizeID uint, full image.Image) error {
	ev, err := newEvent(EventResend, prizeID, MsgResend, full)
	if err != nil {
		return err
	}
	h.send(userID, ev)
	return nil
}

func (h *EventHub) OnAssetMissing(_ context.Context, userID string, prizeID uint) error {
	ev, _ := newEvent(EventAssetMissing, prizeID, MsgAssetMissing, nil)
	h.send(userID, ev)
	return nil
}
