package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/michaelbrown/carcin-play/internal/play"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // widgets are embedded on pages served from other origins
	},
}

// wsIncoming is a message from the client.
type wsIncoming struct {
	Type string  `json:"type"`
	Code *string `json:"code,omitempty"`
}

// wsOutgoing is a message to the client.
type wsOutgoing struct {
	Type    string          `json:"type"`
	Content string          `json:"content,omitempty"`
	Widget  *widgetResponse `json:"widget,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.widgets.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "widget not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		var msg wsIncoming
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			log.Printf("websocket read error: %v", err)
			return
		}

		if msg.Type != "run" {
			wsWriteJSON(conn, wsOutgoing{Type: "error", Content: "invalid message"})
			continue
		}

		s.processWebSocketRun(ctx, conn, widget, msg)
	}
}

func (s *Server) processWebSocketRun(ctx context.Context, conn *websocket.Conn, widget *play.Widget, msg wsIncoming) {
	var (
		ch  <-chan play.Outcome
		err error
	)
	if msg.Code != nil {
		ch, err = widget.RunCode(ctx, *msg.Code)
	} else {
		ch, err = widget.Run(ctx)
	}
	if err != nil {
		wsWriteJSON(conn, wsOutgoing{Type: "error", Content: err.Error()})
		return
	}

	s.sendWidget(conn, "loading", widget)

	outcome := <-ch
	if outcome.Err != nil {
		wsWriteJSON(conn, wsOutgoing{Type: "error", Content: play.ErrorMessage(outcome.Err)})
	}
	s.sendWidget(conn, "result", widget)
}

func (s *Server) sendWidget(conn *websocket.Conn, typ string, widget *play.Widget) {
	resp, err := newWidgetResponse(widget.View())
	if err != nil {
		wsWriteJSON(conn, wsOutgoing{Type: "error", Content: err.Error()})
		return
	}
	wsWriteJSON(conn, wsOutgoing{Type: typ, Widget: &resp})
}

func wsWriteJSON(conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("websocket write error: %v", err)
	}
}
