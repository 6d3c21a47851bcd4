package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"casechain/core/types"
	"casechain/crypto"
)

const wsWriteTimeout = 10 * time.Second

// eventFilter narrows the live stream by event type and account. Empty
// filters match everything.
type eventFilter struct {
	types   map[string]struct{}
	account string
}

func newEventFilter(r *http.Request) (eventFilter, error) {
	query := r.URL.Query()
	filter := eventFilter{}
	if raw := strings.TrimSpace(query.Get("types")); raw != "" {
		filter.types = make(map[string]struct{})
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.types[t] = struct{}{}
			}
		}
	}
	if raw := strings.TrimSpace(query.Get("account")); raw != "" {
		addr, err := parseAddress("account", raw)
		if err != nil {
			return filter, err
		}
		filter.account = crypto.FormatAddress(addr)
	}
	return filter, nil
}

func (f eventFilter) match(evt *types.Event) bool {
	if evt == nil {
		return false
	}
	if f.types != nil {
		if _, ok := f.types[evt.Type]; !ok {
			return false
		}
	}
	if f.account == "" {
		return true
	}
	for _, value := range evt.Attributes {
		if value == f.account {
			return true
		}
	}
	return false
}

func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: APIError{Code: "feed_disabled", Message: "event feed not configured"}})
		return
	}
	filter, err := newEventFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	// the client never sends; CloseRead surfaces its disconnect as ctx cancellation
	ctx := conn.CloseRead(r.Context())
	if err := s.streamEvents(ctx, conn, filter); err != nil {
		if status := websocket.CloseStatus(err); status == -1 && ctx.Err() == nil {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, filter eventFilter) error {
	updates, cancel := s.feed.Subscribe()
	s.metrics.SetSubscribers(s.feed.Subscribers())
	defer func() {
		cancel()
		s.metrics.SetSubscribers(s.feed.Subscribers())
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if !filter.match(evt) {
				continue
			}
			if err := writeEvent(ctx, conn, evt); err != nil {
				return err
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt *types.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
