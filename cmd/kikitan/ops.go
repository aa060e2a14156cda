package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/febilly/kikitan-translator/pkg/logging"
)

// opsServer exposes the operational surface: liveness, session status and
// Prometheus metrics. It binds loopback by default; nothing here is meant
// for the open internet.
type opsServer struct {
	srv    *http.Server
	status func() any
	log    *slog.Logger
}

func newOpsServer(addr string, status func() any, log *slog.Logger) *opsServer {
	o := &opsServer{
		status: status,
		log:    logging.NewComponentLogger(log, "ops"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", o.handleHealth)
	mux.HandleFunc("/status", o.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	o.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return o
}

func (o *opsServer) serve() {
	o.log.Info("ops server listening", slog.String("addr", o.srv.Addr))
	if err := o.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		o.log.Error("ops server failed", slog.String("error", err.Error()))
	}
}

func (o *opsServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.srv.Shutdown(ctx)
}

func (o *opsServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (o *opsServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(o.status()); err != nil {
		o.log.Warn("status encode failed", slog.String("error", err.Error()))
	}
}
