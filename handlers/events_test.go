package handlers

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"image-giveaway/services"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func TestWriteEvents(t *testing.T) {
	events := make(chan services.Event, 2)
	events <- services.Event{ID: "e1", Type: services.EventWin, PrizeID: 4, Message: services.MsgWin}
	events <- services.Event{ID: "e2", Type: services.EventExhausted, PrizeID: 5}
	close(events)

	buf := new(bytes.Buffer)
	w := bufio.NewWriter(buf)
	writeEvents(w, message.NewPrinter(language.English), events, make(chan struct{}), time.Hour)

	out := buf.String()
	if !strings.HasPrefix(out, ":\n\n") {
		t.Fatalf("expected an initial keepalive, got %q", out)
	}
	for _, want := range []string{
		"id: e1\nevent: win\ndata: {",
		`"message":"Congratulations, the prize is yours!"`,
		`"prize_id":4`,
		"id: e2\nevent: prize_exhausted\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in stream:\n%s", want, out)
		}
	}
}

func TestWriteEventsStopsOnDone(t *testing.T) {
	events := make(chan services.Event)
	done := make(chan struct{})

	finished := make(chan struct{})
	go func() {
		writeEvents(bufio.NewWriter(new(bytes.Buffer)), message.NewPrinter(language.English), events, done, 5*time.Millisecond)
		close(finished)
	}()

	time.Sleep(20 * time.Millisecond)
	close(done)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("writer did not stop")
	}
}

func TestWriteEventsTranslates(t *testing.T) {
	events := make(chan services.Event, 1)
	events <- services.Event{ID: "e1", Type: services.EventResend, PrizeID: 2, Message: services.MsgResend}
	close(events)

	buf := new(bytes.Buffer)
	w := bufio.NewWriter(buf)
	writeEvents(w, message.NewPrinter(language.Russian), events, make(chan struct{}), time.Hour)

	if want := `"message":"Вот твоя повторная картинка!"`; !strings.Contains(buf.String(), want) {
		t.Fatalf("expected %s in stream:\n%s", want, buf.String())
	}
}
