package server

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same policy as the CORS middleware: any origin may observe a deal.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWatchDeal upgrades the connection and subscribes it to the deal's
// status stream until the observer disconnects. There is no replay: an
// observer joining mid-run should read the deal record for current state.
func (s *Server) handleWatchDeal(w http.ResponseWriter, r *http.Request) {
	dealID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Message: "invalid deal ID format"})
		return
	}

	deal, err := s.store.GetDealByID(r.Context(), dealID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if deal == nil {
		s.errorResponse(w, &ErrDealNotFound{DealID: dealID})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		log.Printf("[ws] upgrade failed for deal %s: %v", dealID, err)
		return
	}

	key := dealID.String()
	s.broadcaster.Subscribe(key, conn)
	log.Printf("[ws] observer subscribed to deal %s", key)

	defer func() {
		s.broadcaster.Unsubscribe(key, conn)
		_ = conn.Close()
		log.Printf("[ws] observer left deal %s", key)
	}()

	// Drain the connection; we only send, but reading is what detects the
	// client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
