package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialgen/pkg/buildinfo"
	"github.com/matzehuels/spatialgen/pkg/dataset"
	"github.com/matzehuels/spatialgen/pkg/observability"
)

type serveOpts struct {
	addr     string
	imageDir string
	sceneDir string
}

// serveCommand serves a read-only JSON API over a finished dataset.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Browse a rendered dataset over HTTP",
		Long: `Serve a read-only HTTP API over a rendered dataset:

  GET /api/stats                 record counts per relation
  GET /api/buckets               every <o1>_<o2>_<relation> bucket
  GET /api/buckets/{bucket}      records of one bucket
  GET /api/records/{index}       one record
  GET /api/records.jsonl         all records, one per line
  GET /api/manifests             batch manifests
  GET /images/{index}            the image of a record`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.imageDir, "output-image-dir", "", "image root (default from config)")
	cmd.Flags().StringVar(&opts.sceneDir, "output-scene-dir", "", "metadata root (default from config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)
	imageRoot := firstNonEmpty(opts.imageDir, c.cfg.Paths.OutputImageDir)
	sceneRoot := firstNonEmpty(opts.sceneDir, c.cfg.Paths.OutputSceneDir)

	idx, err := dataset.Load(sceneRoot, logger)
	if err != nil {
		return err
	}
	logger.Info("loaded dataset", "records", idx.Len(), "buckets", len(idx.Buckets()), "skipped", len(idx.Skipped))

	srv := &http.Server{
		Addr:              firstNonEmpty(opts.addr, c.cfg.Serve.Addr),
		Handler:           newDatasetRouter(idx, imageRoot, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	printSuccess("Serving %d records on http://%s", idx.Len(), srv.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	printInfo("Server stopped")
	return nil
}

// newDatasetRouter builds the HTTP routes over idx.
func newDatasetRouter(idx *dataset.Index, imageRoot string, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(middleware.SetHeader("Server", buildinfo.UserAgent()))

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, idx.Stats())
		})
		r.Get("/manifests", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, idx.Manifests)
		})
		r.Get("/buckets", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, idx.Buckets())
		})
		r.Get("/buckets/{bucket}", func(w http.ResponseWriter, r *http.Request) {
			entries := idx.Bucket(chi.URLParam(r, "bucket"))
			if len(entries) == 0 {
				writeError(w, http.StatusNotFound, "unknown bucket")
				return
			}
			writeJSON(w, http.StatusOK, entries)
		})
		r.Get("/records.jsonl", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/x-ndjson")
			if err := dataset.WriteJSONL(w, idx.Entries); err != nil {
				logger.Warn("stream records", "error", err)
			}
		})
		r.Get("/records/{index}", func(w http.ResponseWriter, r *http.Request) {
			e, ok := lookup(idx, w, r)
			if ok {
				writeJSON(w, http.StatusOK, e)
			}
		})
	})

	r.Get("/images/{index}", func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookup(idx, w, r)
		if !ok {
			return
		}
		path := e.Image(imageRoot)
		if _, err := os.Stat(path); err != nil {
			writeError(w, http.StatusNotFound, "image missing")
			return
		}
		http.ServeFile(w, r, path)
	})

	return r
}

func lookup(idx *dataset.Index, w http.ResponseWriter, r *http.Request) (dataset.Entry, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return dataset.Entry{}, false
	}
	e, ok := idx.Get(i)
	if !ok {
		writeError(w, http.StatusNotFound, "no record with that index")
	}
	return e, ok
}

// requestLogger logs every request and reports it to the HTTP hooks.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			observability.HTTP().OnResponse(r.Context(), r.Method, route, status, elapsed)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed,
				"id", middleware.GetReqID(r.Context()))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
