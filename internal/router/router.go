package router

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"devicelab/internal/adb"
	"devicelab/internal/collector"
	"devicelab/internal/domain"
	"devicelab/internal/endpoints"
	"devicelab/internal/util"
)

func NewRouter(store domain.Store, client *adb.Client, coll *collector.Collector,
	logger *util.EventLogger, windowSize int) *mux.Router {

	r := mux.NewRouter()

	addRoutes(r, store, client, coll, logger, windowSize)

	r.Use(loggingMiddleware(logger))

	return r
}

func addRoutes(r *mux.Router, store domain.Store, client *adb.Client,
	coll *collector.Collector, logger *util.EventLogger, windowSize int) {

	chartHandler := &endpoints.Chart{}
	chartHandler.Init(store, logger, windowSize)

	deviceHandler := &endpoints.Devices{}
	deviceHandler.Init(client, coll, logger)

	r.HandleFunc("/chart_data", chartHandler.GetChartDataHandler).Methods("GET")

	r.HandleFunc("/devices/connect", deviceHandler.ConnectHandler).Methods("POST")
	r.HandleFunc("/devices/disconnect", deviceHandler.DisconnectHandler).Methods("POST")

	r.HandleFunc("/tests/launch", deviceHandler.LaunchTestHandler).Methods("POST")
	r.HandleFunc("/tests/resources/start", deviceHandler.StartResourceTestHandler).Methods("POST")
	r.HandleFunc("/tests/resources/stop", deviceHandler.StopResourceTestHandler).Methods("POST")
	r.HandleFunc("/tests/storage", deviceHandler.StorageTestHandler).Methods("POST")
	r.HandleFunc("/tests/uptime", deviceHandler.UptimeTestHandler).Methods("POST")
	r.HandleFunc("/tests/frames/start", deviceHandler.StartFrameTestHandler).Methods("POST")
	r.HandleFunc("/tests/frames/stop", deviceHandler.StopFrameTestHandler).Methods("POST")
	r.HandleFunc("/tests/all", deviceHandler.AllTestsHandler).Methods("POST")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func Run(addr string, store domain.Store, client *adb.Client, coll *collector.Collector,
	logger *util.EventLogger, windowSize int) {

	appRouter := NewRouter(store, client, coll, logger, windowSize)

	server := NewServer(addr, appRouter)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")

		coll.StopAll()

		err := gracefulShutdown(server, 25*time.Second)

		if err != nil {
			log.Printf("Server stopped with error: %s", err.Error())
		} else {
			log.Println("Server stopped gracefully.")
		}

		os.Exit(0)
	}()

	log.Printf("Listening on %s", server.Addr)
	log.Fatal(server.ListenAndServe())
}

func gracefulShutdown(server *http.Server, maximumTime time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), maximumTime)
	defer cancel()

	return server.Shutdown(ctx)
}

func loggingMiddleware(logger *util.EventLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Infof("Request: %s %s", r.Method, r.RequestURI)
			next.ServeHTTP(w, r)
		})
	}
}
