// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/orbs-network/gasless-counter/instrumentation/logfields"
	"github.com/orbs-network/gasless-counter/instrumentation/metric"
	"github.com/orbs-network/gasless-counter/instrumentation/trace"
	"github.com/orbs-network/gasless-counter/services/counter"
	"github.com/orbs-network/gasless-counter/services/notification"
	"github.com/orbs-network/gasless-counter/services/sponsor"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/net/netutil"
	"net"
	"net/http"
	"sync"
	"time"
)

var LogTag = log.String("adapter", "http-server")

const apiPrefix = "/api/v1"

type Config interface {
	HttpAddress() string
	HttpMaxConnections() uint32
}

type CounterView interface {
	State() counter.CounterState
	Refresh(ctx context.Context, notify bool) (counter.CounterState, error)
	OnChange(listener counter.StateListener) (current counter.CounterState, unsubscribe func())
}

type Operations interface {
	Increment(ctx context.Context) (*sponsor.PendingOperation, error)
	Decrement(ctx context.Context) (*sponsor.PendingOperation, error)
}

type NotificationFeed interface {
	History() []*notification.Notification
	Subscribe(listener notification.Listener) (unsubscribe func())
}

type httpErr struct {
	code     int
	logField *log.Field
	message  string
}

// HttpServer is the view surface: counter state, the two mutating actions, notifications and a websocket feed of both
type HttpServer struct {
	httpServer     *http.Server
	logger         log.Logger
	config         Config
	counter        CounterView
	operations     Operations
	notifications  NotificationFeed
	metricRegistry metric.Registry
	upgrader       websocket.Upgrader

	port   int
	served chan struct{}

	sockets struct {
		sync.Mutex
		open   map[*websocket.Conn]struct{}
		closed bool
	}
}

func NewHttpServer(cfg Config, parentLogger log.Logger, counter CounterView, operations Operations, notifications NotificationFeed, metricRegistry metric.Registry) (*HttpServer, error) {
	server := &HttpServer{
		logger:         parentLogger.WithTags(LogTag),
		config:         cfg,
		counter:        counter,
		operations:     operations,
		notifications:  notifications,
		metricRegistry: metricRegistry,
		served:         make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	server.sockets.open = make(map[*websocket.Conn]struct{})

	listener, err := server.listen(cfg.HttpAddress())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start http server on %s", cfg.HttpAddress())
	}
	server.port = listener.Addr().(*net.TCPAddr).Port
	server.httpServer = &http.Server{
		Handler:           server.createRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Serve instead of ListenAndServe so a taken port fails the constructor rather than a goroutine
	govnr.Once(logfields.GovnrErrorer(server.logger), func() {
		defer close(server.served)
		if err := server.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			server.logger.Error("http server stopped unexpectedly", log.Error(err))
		}
	})

	server.logger.Info("started http server", log.String("address", cfg.HttpAddress()), log.Int("port", server.port))
	return server, nil
}

func (s *HttpServer) Port() int {
	return s.port
}

func (s *HttpServer) listen(addr string) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if max := s.config.HttpMaxConnections(); max > 0 {
		listener = netutil.LimitListener(listener, int(max))
	}
	return listener, nil
}

func (s *HttpServer) GracefulShutdown(shutdownContext context.Context) {
	if err := s.httpServer.Shutdown(shutdownContext); err != nil {
		s.logger.Error("failed to stop http server gracefully", log.Error(err))
	}
	s.closeSockets()
}

func (s *HttpServer) WaitUntilShutdown(shutdownContext context.Context) {
	select {
	case <-s.served:
	case <-shutdownContext.Done():
		s.logger.Error("http server did not stop before shutdown deadline")
	}
}

func (s *HttpServer) createRouter() http.Handler {
	router := mux.NewRouter()

	// on the root router, not a subrouter, so a method mismatch is answered with 405
	api := func(path string, handler http.HandlerFunc, method string) {
		router.Handle(apiPrefix+path, s.traced(handler)).Methods(method)
	}
	api("/counter", s.getCounter, http.MethodGet)
	api("/counter/refresh", s.refreshCounter, http.MethodPost)
	api("/counter/increment", s.operationHandler(s.operations.Increment), http.MethodPost)
	api("/counter/decrement", s.operationHandler(s.operations.Decrement), http.MethodPost)
	api("/notifications", s.getNotifications, http.MethodGet)

	router.HandleFunc("/ws", s.feed)
	router.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)
	router.Handle("/metrics", s.prometheusHandler()).Methods(http.MethodGet)
	router.HandleFunc("/metrics.json", s.dumpMetrics).Methods(http.MethodGet)
	router.HandleFunc("/robots.txt", s.robots)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{trace.RequestIdHeader},
	}).Handler(router)
}

// traced gives every api call a request id, echoed back to the caller and attached to the logs of the flow it starts
func (s *HttpServer) traced(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := trace.NewFromRequest(r.Context(), r, "http-api")
		if tracingContext, ok := trace.FromContext(ctx); ok {
			tracingContext.WriteTo(w)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HttpServer) prometheusHandler() http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(s.metricRegistry.Collector())
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{ErrorLog: promLogger{s.logger}})
}

type promLogger struct {
	logger log.Logger
}

func (l promLogger) Println(v ...interface{}) {
	l.logger.Info("prometheus export error", log.String("details", fmt.Sprint(v...)))
}

func (s *HttpServer) writeJson(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Info("error writing response", log.Error(err))
	}
}

func (s *HttpServer) writeErrorResponseAndLog(w http.ResponseWriter, m *httpErr) {
	if m.logField == nil {
		s.logger.Info(m.message)
	} else {
		s.logger.Info(m.message, m.logField)
	}
	s.writeJson(w, m.code, map[string]string{"error": m.message})
}
