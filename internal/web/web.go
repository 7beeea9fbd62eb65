// Package web serves the health, metrics and read-only combination API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/simplesurance/go-ip-anonymizer/ipanonymizer"
	"github.com/toksikk/soundbig/internal/datastore"
	"golang.org/x/time/rate"
)

var ipAnonymizer = ipanonymizer.NewWithMask(
	net.CIDRMask(16, 32),
	net.CIDRMask(64, 128),
)

// QueueStats is implemented by *playback.Registry
type QueueStats interface {
	Guilds() int
	ActiveDrains() int
}

// CombinationStore is implemented by *datastore.Store
type CombinationStore interface {
	List(serverID string) ([]datastore.Combination, error)
	Ping() error
}

// Options configures the router
type Options struct {
	Queues    QueueStats
	Store     CombinationStore
	Metrics   http.Handler
	RateLimit float64
	Burst     int
}

type combinationJSON struct {
	Name      string    `json:"name"`
	SoundIDs  []string  `json:"sound_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRouter builds the routes, every request is logged and rate limited per IP
func NewRouter(o Options) *mux.Router {
	r := mux.NewRouter()
	r.Use(logWebRequests)
	r.Use(RateLimitMiddleware(NewIPRateLimiter(rate.Limit(o.RateLimit), o.Burst)))

	r.HandleFunc("/healthz", handleHealth(o.Queues, o.Store)).Methods(http.MethodGet)
	if o.Metrics != nil {
		r.Handle("/metrics", o.Metrics).Methods(http.MethodGet)
	}
	r.HandleFunc("/api/guilds/{guildID:[0-9]+}/combinations", handleCombinations(o.Store)).Methods(http.MethodGet)
	return r
}

// StartWebServer serves handler on the port until ctx is done
func StartWebServer(ctx context.Context, port int, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("could not shut down web server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("could not encode response", "error", err)
	}
}

func handleHealth(queues QueueStats, store CombinationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":        "ok",
			"guilds":        queues.Guilds(),
			"active_drains": queues.ActiveDrains(),
		}
		status := http.StatusOK
		if err := store.Ping(); err != nil {
			body["status"] = "degraded"
			body["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, body)
	}
}

func handleCombinations(store CombinationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID := mux.Vars(r)["guildID"]
		combinations, err := store.List(guildID)
		if err != nil {
			slog.Error("could not list combinations", "guild", guildID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not list combinations"})
			return
		}

		out := make([]combinationJSON, 0, len(combinations))
		for i := range combinations {
			out = append(out, combinationJSON{
				Name:      combinations[i].Name,
				SoundIDs:  combinations[i].SoundIDs(),
				CreatedAt: combinations[i].CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func parseIPPort(s string) (ip net.IP, port string, err error) {
	ip = net.ParseIP(s)
	if ip == nil {
		var host string
		host, port, err = net.SplitHostPort(s)
		if err != nil {
			return
		}
		if port != "" {
			if _, err = strconv.ParseUint(port, 10, 16); err != nil {
				return
			}
		}
		ip = net.ParseIP(host)
	}
	if ip == nil {
		err = errors.New("invalid address format")
	}
	return
}

func logWebRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := parseIPPort(r.RemoteAddr)
		if err != nil {
			slog.Warn("Error parsing IP address for web request", "uri", r.RequestURI)
		} else if anonIP, err := ipAnonymizer.IPString(ip.String()); err != nil {
			slog.Warn("Could not anonymize IP address for web request", "uri", r.RequestURI)
		} else {
			slog.Debug("Web request", "method", r.Method, "uri", r.RequestURI, "from", anonIP)
		}
		next.ServeHTTP(w, r)
	})
}
