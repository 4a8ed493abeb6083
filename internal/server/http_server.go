package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kaelthys/atreia/internal/bot"
	"github.com/kaelthys/atreia/internal/config"
)

type HttpServer struct {
	logger    *slog.Logger
	server    *http.Server
	manager   *bot.SupervisorManager
	templates *template.Template
	wsServer  *WebSocketServer
}

var (
	//go:embed all:assets
	assetsFS embed.FS
	//go:embed all:templates
	templatesFS embed.FS

	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

type Client struct {
	conn *websocket.Conn
	send chan []byte
}

type WebSocketServer struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

func NewWebSocketServer() *WebSocketServer {
	return &WebSocketServer{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (s *WebSocketServer) Run() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = true
		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
		case message := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(s.clients, client)
				}
			}
		}
	}
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}

	client := &Client{conn: conn, send: make(chan []byte, 256)}
	s.register <- client

	go s.writePump(client)
	go s.readPump(client)
}

func (s *WebSocketServer) writePump(client *Client) {
	defer func() {
		client.conn.Close()
	}()

	for message := range client.send {
		w, err := client.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}
	client.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (s *WebSocketServer) readPump(client *Client) {
	defer func() {
		s.unregister <- client
		client.conn.Close()
	}()

	for {
		_, _, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "error", err)
			}
			break
		}
	}
}

// IndexData is the dashboard payload, pushed over the websocket once per
// second and returned by /initial-data.
type IndexData struct {
	Version string                `json:"version"`
	Status  map[string]bot.Status `json:"status"`
	Running map[string]bool       `json:"running"`
}

func New(logger *slog.Logger, manager *bot.SupervisorManager) (*HttpServer, error) {
	templates, err := template.New("").ParseFS(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}

	return &HttpServer{
		logger:    logger,
		manager:   manager,
		templates: templates,
		wsServer:  NewWebSocketServer(),
	}, nil
}

func (s *HttpServer) BroadcastStatus() {
	for {
		data := s.getStatusData()
		jsonData, err := json.Marshal(data)
		if err != nil {
			slog.Error("Failed to marshal status data", "error", err)
			time.Sleep(1 * time.Second)
			continue
		}

		s.wsServer.broadcast <- jsonData
		time.Sleep(1 * time.Second)
	}
}

func (s *HttpServer) getStatusData() IndexData {
	status := make(map[string]bot.Status)
	running := make(map[string]bool)

	for _, supervisorName := range s.manager.AvailableSupervisors() {
		if st, ok := s.manager.Status(supervisorName); ok {
			status[supervisorName] = st
			running[supervisorName] = true
		} else {
			running[supervisorName] = false
		}
	}

	return IndexData{
		Version: config.Version,
		Status:  status,
		Running: running,
	}
}

func (s *HttpServer) Listen(port int) error {
	go s.wsServer.Run()
	go s.BroadcastStatus()

	http.HandleFunc("/", s.getRoot)
	http.HandleFunc("/start", s.startSupervisor)
	http.HandleFunc("/stop", s.stopSupervisor)
	http.HandleFunc("/initial-data", s.initialData)
	http.HandleFunc("/ws", s.wsServer.HandleWebSocket)
	http.HandleFunc("/api/reload-config", s.reloadConfig)
	http.HandleFunc("/api/snapshot", s.latestSnapshot)
	http.HandleFunc("/api/clear-cooldowns", s.clearCooldowns)

	assets, _ := fs.Sub(assetsFS, "assets")
	http.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(assets))))

	s.server = &http.Server{
		Addr: fmt.Sprintf(":%d", port),
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HttpServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *HttpServer) getRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.index(w)
}

func (s *HttpServer) index(w http.ResponseWriter) {
	if err := s.templates.ExecuteTemplate(w, "index.gohtml", s.getStatusData()); err != nil {
		s.logger.Error("Failed to render index template", slog.Any("error", err))
	}
}

func (s *HttpServer) initialData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.getStatusData())
}

func (s *HttpServer) startSupervisor(w http.ResponseWriter, r *http.Request) {
	supervisor := r.URL.Query().Get("characterName")
	if supervisor == "" {
		http.Error(w, "missing characterName", http.StatusBadRequest)
		return
	}

	if _, found := config.GetProfile(supervisor); !found {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}

	go func(name string) {
		if err := s.manager.Start(name); err != nil {
			s.logger.Error("Failed to start supervisor", slog.String("supervisor", name), slog.Any("error", err))
		}
	}(supervisor)

	s.initialData(w, r)
}

func (s *HttpServer) stopSupervisor(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("characterName")
	if name == "" {
		http.Error(w, "missing characterName", http.StatusBadRequest)
		return
	}
	s.manager.Stop(name)
	s.initialData(w, r)
}

func (s *HttpServer) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if err := config.Load(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Info("Config reloaded")
	w.WriteHeader(http.StatusOK)
}

func (s *HttpServer) latestSnapshot(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("characterName")
	if name == "" {
		http.Error(w, "missing characterName", http.StatusBadRequest)
		return
	}

	snapshot, found := s.manager.LatestSnapshot(name)
	if !found {
		http.Error(w, "no snapshot available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

func (s *HttpServer) clearCooldowns(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("characterName")
	if name == "" {
		http.Error(w, "missing characterName", http.StatusBadRequest)
		return
	}

	if !s.manager.ClearCooldowns(name) {
		http.Error(w, "supervisor not running", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
