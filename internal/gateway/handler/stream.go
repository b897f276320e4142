package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"readmegen/internal/readme"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = (streamPongWait * 9) / 10
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type streamOutbound struct {
	Type   string             `json:"type"`
	RunID  string             `json:"runId,omitempty"`
	Event  *readme.StageEvent `json:"event,omitempty"`
	README string             `json:"readme,omitempty"`
	HTML   string             `json:"html,omitempty"`
	Code   string             `json:"code,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// HandleGenerateWS runs one generation and streams its stage events,
// finishing with a "result" or "error" message. Query parameters match the
// JSON body of HandleGenerate. Closing the socket cancels the run.
func (h *ReadmeHandler) HandleGenerateWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := buildRequest(generateJSON{
		GitHubURL: q.Get("github_url"),
		Profile:   q.Get("profile"),
		Repo:      q.Get("repo"),
		Branch:    q.Get("branch"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(streamPongWait)); err != nil {
		log.Printf("generate ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	writeCh := make(chan streamOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(streamPingEvery)
		defer ticker.Stop()
		for {
			select {
			case out, ok := <-writeCh:
				if !ok {
					_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
					_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					cancel()
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					cancel()
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					cancel()
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	// Control frames are only processed while reading; a read error means the
	// client went away.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	push := func(out streamOutbound) {
		select {
		case writeCh <- out:
		case <-writerDone:
		}
	}

	out := h.svc.Generate(ctx, req, readme.ObserverFunc(func(ev readme.StageEvent) {
		push(streamOutbound{Type: "stage", RunID: ev.RunID, Event: &ev})
	}))
	if out.Err != nil {
		push(streamOutbound{
			Type:  "error",
			RunID: out.RunID,
			Code:  string(readme.KindOf(out.Err)),
			Error: strings.TrimSpace(out.Err.Error()),
		})
	} else {
		push(streamOutbound{Type: "result", RunID: out.RunID, README: out.Result.README, HTML: out.Result.HTML})
	}
	close(writeCh)
	<-writerDone
}
