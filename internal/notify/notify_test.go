package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepitup/internal/logging"
)

type recordingSender struct {
	name   string
	mu     sync.Mutex
	events []*Event
	err    error
	panic  bool
	block  bool
}

func (r *recordingSender) Name() string { return r.name }

func (r *recordingSender) Send(ctx context.Context, event *Event) error {
	if r.panic {
		panic("boom")
	}
	if r.block {
		<-ctx.Done()
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func testEvent() *Event {
	return NewEvent(7, "router", "192.168.1.1", false, "0 of 3 packets received", time.Now())
}

func TestDispatcher_Sync(t *testing.T) {
	d := NewDispatcher(false)
	a := &recordingSender{name: "a"}
	b := &recordingSender{name: "b", err: errors.New("down")}
	d.Register(a)
	d.Register(b)

	d.Dispatch(context.Background(), testEvent())
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count(), "a failing sender does not stop others")

	d.Unregister("a")
	require.Len(t, d.Senders(), 1)
	d.Dispatch(context.Background(), testEvent())
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 2, b.count())
}

func TestDispatcher_AsyncRecoversAndTimesOut(t *testing.T) {
	d := NewDispatcher(true)
	d.SetTimeout(20 * time.Millisecond)
	ok := &recordingSender{name: "ok"}
	d.Register(&recordingSender{name: "panics", panic: true})
	d.Register(&recordingSender{name: "blocks", block: true})
	d.Register(ok)

	d.Dispatch(context.Background(), testEvent())
	d.Wait()
	assert.Equal(t, 1, ok.count())
}

func TestNewEvent(t *testing.T) {
	e := testEvent()
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "router is not reachable", e.Title())
	e.Success = true
	assert.Equal(t, "router is reachable again", e.Title())
}

func TestLogSender(t *testing.T) {
	t.Cleanup(logging.Reset)
	var buf bytes.Buffer
	l, err := logging.New(logging.Options{Writer: &buf})
	require.NoError(t, err)
	logging.Set(l)

	require.NoError(t, LogSender{}.Send(context.Background(), testEvent()))
	assert.Contains(t, buf.String(), "router is not reachable")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestWebhookSender(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, WithHTTPClient(srv.Client()))
	event := testEvent()
	require.NoError(t, s.Send(context.Background(), event))
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, int64(7), got.TaskID)
}

func TestWebhookSender_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookSender(srv.URL).Send(context.Background(), testEvent())
	assert.ErrorContains(t, err, "502")
}
