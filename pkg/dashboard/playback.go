package dashboard

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sudorandom/polio-dashboard/pkg/charts"
)

const writeWait = 10 * time.Second

// PlaybackMessage is one frame pushed over /ws/map.
type PlaybackMessage struct {
	Period string         `json:"period"`
	Index  int            `json:"index"`
	Total  int            `json:"total"`
	Data   []charts.Trace `json:"data"`
}

// handlePlayback streams the map frames in order, one per frame interval,
// starting at the optional ?from= period, then closes the connection.
func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	names := s.bundle.Map.FrameNames()
	start := 0
	if from := r.URL.Query().Get("from"); from != "" {
		i, ok := s.frameIndex[from]
		if !ok {
			respondError(w, charts.ErrUnknownFrame.Error(), http.StatusNotFound)
			return
		}
		start = i
	}

	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Playback upgrade failed")
		return
	}
	defer func() {
		_ = c.Close()
	}()

	s.metrics.PlaybackStreams.Inc()
	defer s.metrics.PlaybackStreams.Dec()

	// The server's read and write timeouts still apply to the hijacked
	// connection; playback outlives both.
	_ = c.SetReadDeadline(time.Time{})

	// Reads only surface the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	for i := start; i < len(names); i++ {
		fr, _ := s.bundle.Map.Frame(names[i])
		msg := PlaybackMessage{Period: fr.Name, Index: i, Total: len(names), Data: fr.Data}
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteJSON(msg); err != nil {
			s.logger.Debug().Err(err).Msg("Playback write failed")
			return
		}
		if i == len(names)-1 {
			break
		}
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}

	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	err = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return
	}
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}
