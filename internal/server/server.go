// Package server exposes the player over HTTP: JSON snapshots of the current
// frame, a control endpoint and a websocket stream of frames for a browser
// map.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/websocket"

	"github.com/san-kum/quakeplay/internal/control"
	"github.com/san-kum/quakeplay/internal/playback"
	"github.com/san-kum/quakeplay/internal/render"
)

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	clientQueue = 16
)

// Frame is what clients receive: the state, its labels and the markers to
// draw after clearing the previous frame.
type Frame struct {
	NowMs   int64               `json:"now"`
	State   playback.State      `json:"state"`
	Labels  playback.Labels     `json:"labels"`
	Markers []render.MarkerSpec `json:"markers"`
	Counts  map[string]int      `json:"counts"`
}

type Server struct {
	surface  *control.Surface
	ctrl     *playback.Controller
	engine   *gin.Engine
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	unsub   func()
}

type client struct {
	conn *websocket.Conn
	send chan Frame
	once sync.Once
}

func New(surface *control.Surface) *Server {
	s := &Server{
		surface: surface,
		ctrl:    surface.Controller(),
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.engine = s.routes()
	s.unsub = s.ctrl.Subscribe(func(playback.State) { s.broadcast(s.Frame()) })
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"events":  s.ctrl.Events().Len(),
			"skipped": s.ctrl.Events().Skipped(),
			"clients": s.Clients(),
		})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/state", s.getState)
		api.GET("/markers", s.getMarkers)
		api.POST("/controls", s.postControls)
		api.GET("/stream", s.stream)
	}
	return r
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Frame computes the current frame.
func (s *Server) Frame() Frame {
	st := s.ctrl.State()
	now := s.ctrl.Now().UnixMilli()
	markers := render.ComputeVisibleMarkers(s.ctrl.Events().Events(), st, now)
	counts := make(map[string]int)
	for c, n := range render.Counts(markers) {
		counts[c.String()] = n
	}
	return Frame{
		NowMs:   now,
		State:   st,
		Labels:  s.ctrl.Labels(),
		Markers: markers,
		Counts:  counts,
	}
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":    s.ctrl.State(),
		"labels":   s.ctrl.Labels(),
		"controls": control.Controls(),
	})
}

func (s *Server) getMarkers(c *gin.Context) {
	c.JSON(http.StatusOK, s.Frame())
}

// postControls accepts one input object or an array of them. Inputs are
// applied in order and stop at the first invalid one.
func (s *Server) postControls(c *gin.Context) {
	var inputs []control.Input
	var single control.Input
	if err := c.ShouldBindBodyWith(&inputs, binding.JSON); err != nil {
		if err := c.ShouldBindBodyWith(&single, binding.JSON); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		inputs = []control.Input{single}
	}

	for i, in := range inputs {
		if err := s.surface.Handle(in); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, control.ErrUnknownControl) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error(), "applied": i})
			return
		}
	}
	c.JSON(http.StatusOK, s.Frame())
}

// stream upgrades to a websocket, sends the current frame and then one frame
// per state change. Text messages from the client are decoded as inputs.
func (s *Server) stream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	cl := &client{conn: conn, send: make(chan Frame, clientQueue)}
	cl.send <- s.Frame()

	s.mu.Lock()
	s.clients[cl] = struct{}{}
	s.mu.Unlock()

	go s.writeLoop(cl)
	s.readLoop(cl)
}

func (s *Server) readLoop(cl *client) {
	defer s.drop(cl)
	for {
		var in control.Input
		if err := cl.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read: %v", err)
			}
			return
		}
		if err := s.surface.Handle(in); err != nil {
			log.Printf("websocket input rejected: %v", err)
		}
	}
}

func (s *Server) writeLoop(cl *client) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		cl.conn.Close()
	}()
	for {
		select {
		case f, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteJSON(f); err != nil {
				return
			}
		case <-ping.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// broadcast queues f for every client. Slow clients miss frames rather than
// blocking playback.
func (s *Server) broadcast(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for cl := range s.clients {
		select {
		case cl.send <- f:
		default:
		}
	}
}

func (s *Server) drop(cl *client) {
	s.mu.Lock()
	if _, ok := s.clients[cl]; ok {
		delete(s.clients, cl)
		cl.once.Do(func() { close(cl.send) })
	}
	s.mu.Unlock()
}

// Clients reports the number of connected stream clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects stream clients and stops following the controller.
func (s *Server) Close() {
	s.unsub()
	s.mu.Lock()
	for cl := range s.clients {
		delete(s.clients, cl)
		cl.once.Do(func() { close(cl.send) })
	}
	s.mu.Unlock()
}

// Run serves on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Printf("serving on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
