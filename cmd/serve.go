package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brandscope/competitor-cli/internal/materialize"
	"github.com/brandscope/competitor-cli/internal/model"
	"github.com/brandscope/competitor-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only review API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := st.Ping(req.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/jobs/{jobID}", func(r chi.Router) {
		r.Get("/run", func(w http.ResponseWriter, req *http.Request) {
			run, err := st.LatestRun(req.Context(), chi.URLParam(req, "jobID"))
			if err != nil {
				writeError(w, err)
				return
			}
			if run == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no runs for job"})
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		r.Get("/shortlist", func(w http.ResponseWriter, req *http.Request) {
			view, err := materialize.New(st, cfg.Retention).GroupedView(req.Context(), chi.URLParam(req, "jobID"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, view)
		})

		r.Get("/stages", func(w http.ResponseWriter, req *http.Request) {
			stages, err := materialize.New(st, cfg.Retention).StageView(req.Context(), chi.URLParam(req, "jobID"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, stages)
		})

		r.Get("/candidates", func(w http.ResponseWriter, req *http.Request) {
			filter := store.CandidateFilter{
				Platform: model.Surface(req.URL.Query().Get("platform")),
			}
			if s := req.URL.Query().Get("state"); s != "" {
				filter.States = []model.CandidateState{model.CandidateState(s)}
			}
			cands, err := st.ListCandidates(req.Context(), chi.URLParam(req, "jobID"), filter)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, cands)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
