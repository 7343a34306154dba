package gateway

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"MarketPulse/internal/model"
	"MarketPulse/internal/strategy"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// BoardReader is the read side of the board.
type BoardReader interface {
	Get(symbol string) (model.BoardEntry, bool)
	List() []model.BoardEntry
}

// NewsReader returns the most recently fetched headlines.
type NewsReader interface {
	LatestNews() []model.NewsItem
}

// Deps are the collaborators behind the HTTP routes.
type Deps struct {
	Hub      *Hub
	Board    BoardReader
	News     NewsReader
	Gatherer prometheus.Gatherer
	Started  time.Time
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	SetCORS(w)
	w.Header().Set("Content-Type", "application/json")
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("[ERROR] encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"response could not be encoded"}` + "\n"))
		return
	}
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// RegisterRoutes registers all HTTP routes on mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[WARN] ws upgrade error: %v", err)
			return
		}
		d.Hub.Register(conn)
	})

	mux.HandleFunc("GET /api/board", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Board.List())
	})

	mux.HandleFunc("GET /api/board/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(r.PathValue("symbol"))
		entry, ok := d.Board.Get(symbol)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown symbol "+symbol)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	})

	mux.HandleFunc("GET /api/analyze", handleAnalyze)

	mux.HandleFunc("GET /api/news", func(w http.ResponseWriter, r *http.Request) {
		var items []model.NewsItem
		if d.News != nil {
			items = d.News.LatestNews()
		}
		if items == nil {
			items = []model.NewsItem{}
		}
		writeJSON(w, http.StatusOK, items)
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "healthy",
			"uptime":     time.Since(d.Started).Round(time.Second).String(),
			"symbols":    len(d.Board.List()),
			"ws_clients": d.Hub.ClientCount(),
		})
	})

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// handleAnalyze runs the engine on a quote given as query parameters.
// price and change are required, the rest default to zero. Every value must be
// finite except change, where NaN means "no change" and is answered with 422.
func handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("change") == "" {
		writeError(w, http.StatusUnprocessableEntity, "change is required")
		return
	}

	quote := model.Quote{Symbol: q.Get("symbol")}
	fields := []struct {
		name     string
		dst      *float64
		required bool
	}{
		{"price", &quote.Price, true},
		{"change", &quote.ChangePercent, true},
		{"high", &quote.DayHigh, false},
		{"low", &quote.DayLow, false},
		{"volume", &quote.Volume, false},
		{"avg_volume", &quote.AverageVolume, false},
	}
	for _, f := range fields {
		raw := q.Get(f.name)
		if raw == "" {
			if f.required {
				writeError(w, http.StatusBadRequest, f.name+" is required")
				return
			}
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsInf(v, 0) || (math.IsNaN(v) && f.name != "change") {
			writeError(w, http.StatusBadRequest, "invalid "+f.name)
			return
		}
		*f.dst = v
	}

	result := strategy.Analyze(&quote)
	if result == nil {
		writeError(w, http.StatusUnprocessableEntity, "change is not a number")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
