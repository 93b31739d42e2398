package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/PainterQubits/paramdb/pkg/errors"
	"github.com/PainterQubits/paramdb/pkg/store"
)

// serveCommand creates the serve command: a read-only HTTP viewer over the
// store for local inspection. The store itself has no network surface;
// this is tooling layered on top of it.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve commit history over HTTP",
		Long: `Serve a read-only JSON view of the store over HTTP.

Endpoints:
  GET /commits           commit entries (without snapshots)
  GET /commits/{id}      one commit's entry and canonical snapshot
  GET /commits/latest    the most recent commit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Dispose()

			srv := &http.Server{
				Addr:              addr,
				Handler:           historyRouter(db),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			printInfo("Serving commit history on http://%s", addr)

			select {
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
				return cmd.Context().Err()
			case err := <-errCh:
				if err == http.ErrServerClosed {
					return nil
				}
				return errors.Wrap(errors.ErrCodeInternal, err, "serve on %s", addr)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8333", "listen address")

	return cmd
}

// historyRouter builds the read-only commit history router.
func historyRouter(db *store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/commits", func(w http.ResponseWriter, req *http.Request) {
		entries, err := db.CommitHistory(req.Context(), nil, nil)
		if err != nil {
			writeError(w, err)
			return
		}
		if entries == nil {
			entries = []store.CommitEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	})

	r.Get("/commits/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, err := commitIDArg([]string{chi.URLParam(req, "id")})
		if err != nil {
			writeError(w, err)
			return
		}
		raw, entry, err := db.RawJSON(req.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":        entry.ID,
			"message":   entry.Message,
			"timestamp": entry.Timestamp,
			"data":      json.RawMessage(raw),
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeCommitNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{
		"code":  string(errors.GetCode(err)),
		"error": errors.UserMessage(err),
	})
}
