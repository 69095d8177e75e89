package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"

	"github.com/gorilla/websocket"
)

const replayListLimit = 20

var uuidPathRe = regexp.MustCompile(`^/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		// SPA: serve index.html for root and UUID paths
		if r.URL.Path == "/" || uuidPathRe.MatchString(r.URL.Path) {
			http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	}))

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	// Join QR code for a second device
	mux.HandleFunc("GET /qr/{sid}", func(w http.ResponseWriter, r *http.Request) {
		sid := r.PathValue("sid")
		if hub.sessions.GetSession(sid) == nil {
			http.NotFound(w, r)
			return
		}
		png, err := JoinQRCode(JoinURL(r, sid))
		if err != nil {
			log.Printf("qr %s: %v", sid, err)
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	})

	// Replay journal
	mux.HandleFunc("GET /api/replays", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			http.Error(w, "replays disabled", http.StatusNotFound)
			return
		}
		list, err := hub.db.ListReplays(replayListLimit)
		if err != nil {
			log.Printf("list replays: %v", err)
			http.Error(w, "database error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []ReplayRow{}
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("GET /api/replays/{id}", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			http.Error(w, "replays disabled", http.StatusNotFound)
			return
		}
		rep, err := hub.db.GetReplay(r.PathValue("id"))
		if err != nil {
			log.Printf("get replay: %v", err)
			http.Error(w, "database error", http.StatusInternalServerError)
			return
		}
		if rep == nil {
			http.NotFound(w, r)
			return
		}
		res, err := VerifyReplay(rep)
		if err != nil {
			log.Printf("verify replay %s: %v", rep.ID, err)
			writeJSON(w, http.StatusUnprocessableEntity, ErrorMsg{Msg: err.Error()})
			return
		}
		if !res.OK {
			log.Printf("replay %s diverged: expected %s, got %s", rep.ID, res.Expected, res.Got)
		}
		writeJSON(w, http.StatusOK, res)
	})

	return mux
}
