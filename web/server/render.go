package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEvent is one outgoing websocket message
type wsEvent struct {
	messageType int
	data        []byte
}

// StatusMessage is a JSON text message sent alongside the binary row frames
type StatusMessage struct {
	Type    string          `json:"type"` // "start", "console", "complete", "error"
	Scene   string          `json:"scene,omitempty"`
	Width   int             `json:"width,omitempty"`
	Height  int             `json:"height,omitempty"`
	Console *ConsoleMessage `json:"console,omitempty"`
	Stats   *Stats          `json:"stats,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// handleRender renders a scene and streams finished rows over a websocket.
// Rows arrive in order as binary frames (see EncodeRow); progress and
// completion are JSON text messages.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	// Validate before upgrading so bad requests get a plain HTTP error
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request: " + err.Error()})
		return
	}
	sceneObj, err := s.createScene(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Single writer goroutine; gorilla connections allow one concurrent writer
	events := make(chan wsEvent, 256)
	writerDone := make(chan struct{})
	go s.writeEvents(conn, events, cancel, writerDone)

	// The reader notices client close frames and cancels the render
	go s.readUntilClose(conn, cancel)

	consoleCtx, stopConsole := context.WithCancel(ctx)
	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(consoleCtx, consoleChan, events)
	}()

	camera := sceneObj.NewCamera()
	raytracer := renderer.NewRaytracer(camera, sceneObj.World, renderer.RenderOptions{
		NumWorkers: req.Workers,
		Seed:       req.Seed,
	}, webLogger)

	s.sendStatus(ctx, events, StatusMessage{
		Type:   "start",
		Scene:  sceneObj.Name,
		Width:  camera.ImageWidth(),
		Height: camera.ImageHeight(),
	})

	stats, err := raytracer.Render(ctx, func(row int, colors []core.Vec3) error {
		select {
		case events <- wsEvent{messageType: websocket.BinaryMessage, data: EncodeRow(row, colors)}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	stopConsole()
	<-consoleDone

	if err != nil {
		log.Printf("Render %s stopped: %v", sceneObj.Name, err)
		s.sendStatus(ctx, events, StatusMessage{Type: "error", Error: fmt.Sprintf("Render error: %v", err)})
	} else {
		result := newStats(stats)
		s.sendStatus(ctx, events, StatusMessage{Type: "complete", Scene: sceneObj.Name, Stats: &result})
	}

	close(events)
	<-writerDone
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan)
	return consoleChan, webLogger
}

// writeEvents writes every queued event in order, then closes the socket cleanly.
// A failed write cancels the render but keeps draining so producers never block.
func (s *Server) writeEvents(conn *websocket.Conn, events <-chan wsEvent, cancel context.CancelFunc, done chan<- struct{}) {
	defer close(done)

	failed := false
	for event := range events {
		if failed {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(event.messageType, event.data); err != nil {
			// Client disconnected during write
			failed = true
			cancel()
		}
	}

	if !failed {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
	}
}

// readUntilClose discards client messages until the connection ends
func (s *Server) readUntilClose(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// streamConsoleMessages forwards logger output to the websocket as console messages
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, events chan<- wsEvent) {
	for {
		select {
		case consoleMsg := <-consoleChan:
			msg := consoleMsg
			data, err := json.Marshal(StatusMessage{Type: "console", Console: &msg})
			if err != nil {
				log.Printf("Error marshaling console message: %v", err)
				continue
			}

			// Send to the writer, dropping the message if it is backed up
			select {
			case events <- wsEvent{messageType: websocket.TextMessage, data: data}:
			case <-ctx.Done():
				return
			default:
			}

		case <-ctx.Done():
			// Render finished or client disconnected
			return
		}
	}
}

// sendStatus queues a JSON status message
func (s *Server) sendStatus(ctx context.Context, events chan<- wsEvent, status StatusMessage) {
	data, err := json.Marshal(status)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", status.Type, err)
		return
	}

	select {
	case events <- wsEvent{messageType: websocket.TextMessage, data: data}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
