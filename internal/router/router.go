package router

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cpu-monitoring/internal/endpoints"
	"cpu-monitoring/internal/monitoring"
	"cpu-monitoring/internal/util"
)

func NewRouter(service *monitoring.Service, gatherer prometheus.Gatherer, webSlogger *util.MonitorLogger) *mux.Router {
	r := mux.NewRouter()

	addRoutes(r, service, gatherer, webSlogger)

	r.Use(loggingMiddleware(webSlogger))

	return r
}

func addRoutes(r *mux.Router, service *monitoring.Service, gatherer prometheus.Gatherer, webSlogger *util.MonitorLogger) {
	cpuHandler := &endpoints.CPUMonitoring{}
	cpuHandler.Init(service, webSlogger)

	api := r.PathPrefix("/api/cpumonitoring").Subrouter()
	api.HandleFunc("/minute", cpuHandler.GetUsageByMinuteHandler).Methods("GET")
	api.HandleFunc("/hour", cpuHandler.GetUsageStatsByHourHandler).Methods("GET")
	api.HandleFunc("/day", cpuHandler.GetUsageStatsByDayHandler).Methods("GET")

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Run serves until SIGINT or SIGTERM, then shuts the server down and calls
// onShutdown so the caller can stop the sampler and close the store.
func Run(addr string, shutdownTimeout time.Duration, handler http.Handler, onShutdown func()) error {
	server := NewServer(addr, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			onShutdown()
			return err
		}
	case <-quit:
		log.Println("Shutting down server...")
	}

	err := gracefulShutdown(server, shutdownTimeout)
	onShutdown()

	if err != nil {
		log.Printf("Server stopped with error: %s", err.Error())
		return err
	}
	log.Println("Server stopped gracefully.")
	return nil
}

func gracefulShutdown(server *http.Server, maximumTime time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), maximumTime)
	defer cancel()

	return server.Shutdown(ctx)
}

func loggingMiddleware(logger *util.MonitorLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogEvent(util.LOG_LEVEL_INFO, fmt.Sprintf("Request: %s %s", r.Method, r.RequestURI))
			next.ServeHTTP(w, r)
		})
	}
}
