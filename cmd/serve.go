package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/gridsight/siterisk-cli/internal/filter"
	"github.com/gridsight/siterisk-cli/internal/ingest"
	"github.com/gridsight/siterisk-cli/internal/risk"
	"github.com/gridsight/siterisk-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the classified sites over HTTP for the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		resolver, closeResolver, err := newLocationResolver(ctx)
		if err != nil {
			return err
		}
		defer closeResolver()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		api := &apiServer{
			store:    st,
			resolver: resolver,
			fault:    loadFaultGeometry(),
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("serving dashboard API", zap.Int("port", port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return eris.Wrap(err, "serve: shutdown")
			}
			return nil
		case err := <-errCh:
			if err == http.ErrServerClosed {
				return nil
			}
			return eris.Wrap(err, "serve: listen")
		}
	},
}

type apiServer struct {
	store    *store.SQLiteStore
	resolver ingest.LocationResolver
	fault    geom.T
	zones    risk.ZoneCache
}

func (a *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", a.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/sites", a.handleSites)
		r.Get("/staging", a.handleStaging)
		r.Get("/zones", a.handleZones)
		r.Post("/classify", a.handleClassify)
	})
	return r
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSites returns the latest classified batch filtered by the query
// parameters city, status, provider, and risk. Absent parameters mean "all".
func (a *apiServer) handleSites(w http.ResponseWriter, r *http.Request) {
	batch, err := a.store.LatestBatch(r.Context(), store.KindSites)
	if err != nil {
		if eris.Is(err, store.ErrNoBatch) {
			writeJSON(w, http.StatusOK, map[string]any{"sites": []any{}, "count": 0})
			return
		}
		writeError(w, http.StatusInternalServerError, "load batch failed")
		return
	}

	sites, err := batch.Sites()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "decode batch failed")
		return
	}

	filtered := filter.Apply(sites, criteriaFromQuery(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"sites":     filtered,
		"count":     len(filtered),
		"loaded_at": batch.CreatedAt,
	})
}

func (a *apiServer) handleStaging(w http.ResponseWriter, r *http.Request) {
	batch, err := a.store.LatestBatch(r.Context(), store.KindStaging)
	if err != nil {
		if eris.Is(err, store.ErrNoBatch) {
			writeJSON(w, http.StatusOK, map[string]any{"areas": []any{}, "count": 0})
			return
		}
		writeError(w, http.StatusInternalServerError, "load batch failed")
		return
	}

	areas, err := batch.StagingAreas()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "decode batch failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"areas":     areas,
		"count":     len(areas),
		"loaded_at": batch.CreatedAt,
	})
}

// handleZones returns the tier buffer rings around the fault as a GeoJSON
// FeatureCollection for map shading.
func (a *apiServer) handleZones(w http.ResponseWriter, r *http.Request) {
	zones := a.zones.Zones(a.fault)
	fc := geojson.FeatureCollection{}
	for _, z := range zones {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       string(z.Tier),
			Geometry: z.Geometry,
			Properties: map[string]any{
				"tier":      string(z.Tier),
				"radius_km": z.RadiusKM,
			},
		})
	}

	data, err := json.Marshal(&fc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode zones failed")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleClassify ingests a CSV body, classifies it, saves the batch, and
// returns the classified records plus dropped-row diagnostics.
func (a *apiServer) handleClassify(w http.ResponseWriter, r *http.Request) {
	convention, err := ingest.ParseConvention(conventionOrDefault(r.URL.Query().Get("convention")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := ingest.ParseSites(r.Body, ingest.Options{
		Convention: convention,
		Resolver:   a.resolver,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable input: "+err.Error())
		return
	}

	classified := risk.ClassifyAll(res.Sites, a.fault)

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}
	batch, err := a.store.SaveSites(r.Context(), source, classified, len(res.Dropped))
	if err != nil {
		zap.L().Error("save uploaded batch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save batch failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": batch.ID,
		"sites":    classified,
		"dropped":  res.Dropped,
	})
}

func criteriaFromQuery(r *http.Request) filter.Criteria {
	q := r.URL.Query()
	return filter.Criteria{
		City:      q.Get("city"),
		Status:    q.Get("status"),
		Provider:  q.Get("provider"),
		RiskLevel: q.Get("risk"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
