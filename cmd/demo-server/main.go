package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	mem "progresskit/adapters/memory"
	"progresskit/analytics"
	"progresskit/core"
	"progresskit/engine"
	"progresskit/progress"
	"progresskit/stats"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	metrics := analytics.NewProgressMetrics()
	svc := progress.New(
		progress.WithStore(mem.New()),
		// fixed counters so the demo unlocks something right away
		progress.WithStatsProvider(&stats.Static{Comments: 5, Reports: 1}),
		progress.WithDispatchMode(engine.DispatchSync),
		progress.WithHooks(metrics),
	)
	defer svc.Close()

	http.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		// routes: POST /users/{id}/xp?action=comment, GET /users/{id}
		parts := split(r.URL.Path, '/')
		if len(parts) < 2 {
			http.NotFound(w, r)
			return
		}
		user := core.UserID(parts[1])
		switch r.Method {
		case http.MethodPost:
			if len(parts) == 3 && parts[2] == "xp" {
				kind := core.ActionKind(r.URL.Query().Get("action"))
				res, err := svc.AddXP(r.Context(), user, kind)
				writeJSON(w, map[string]any{"result": res, "err": errString(err)})
				return
			}
		case http.MethodGet:
			st, err := svc.GetStats(r.Context(), user)
			if err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			recs, _ := svc.Achievements(r.Context(), user)
			writeJSON(w, map[string]any{"stats": st, "achievements": recs})
			return
		}
		http.NotFound(w, r)
	})

	http.HandleFunc("/metrics/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, metrics.Snapshot())
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func errString(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

func split(p string, sep rune) []string {
	var parts []string
	current := make([]rune, 0, len(p))

	for _, r := range p {
		if r == sep {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = current[:0]
			}
			continue
		}
		current = append(current, r)
	}

	if len(current) > 0 {
		parts = append(parts, string(current))
	}

	return parts
}
