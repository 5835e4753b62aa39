// Copyright 2023 the gasless-counter authors
// This file is part of the gasless-counter library in the Orbs project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package httpserver

import (
	"context"
	"encoding/json"
	"github.com/ethereum/go-ethereum/common"
	"github.com/orbs-network/gasless-counter/instrumentation/trace"
	"github.com/orbs-network/gasless-counter/services/sponsor"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"net/http"
)

type operationResponse struct {
	Status        string `json:"status"`
	OperationHash string `json:"operationHash,omitempty"`
	Error         string `json:"error,omitempty"`
}

func (s *HttpServer) robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, err := w.Write([]byte("User-agent: *\nDisallow: /\n"))
	if err != nil {
		s.logger.Info("error writing robots.txt response", log.Error(err))
	}
}

func (s *HttpServer) dumpMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	bytes, _ := json.Marshal(s.metricRegistry.ExportAll())
	_, err := w.Write(bytes)
	if err != nil {
		s.logger.Info("error writing response", log.Error(err))
	}
}

func (s *HttpServer) getCounter(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, s.counter.State())
}

func (s *HttpServer) refreshCounter(w http.ResponseWriter, r *http.Request) {
	state, err := s.counter.Refresh(r.Context(), true)
	if err != nil {
		s.logger.Info("explicit refresh failed", trace.LogFieldFrom(r.Context()), log.Error(err))
		s.writeJson(w, http.StatusBadGateway, map[string]string{"error": "failed to read counter state"})
		return
	}
	s.writeJson(w, http.StatusOK, state)
}

func (s *HttpServer) getNotifications(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, s.notifications.History())
}

func (s *HttpServer) operationHandler(run func(ctx context.Context) (*sponsor.PendingOperation, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op, err := run(r.Context())
		if errors.Is(err, sponsor.ErrOperationInFlight) {
			s.writeErrorResponseAndLog(w, &httpErr{http.StatusConflict, nil, err.Error()})
			return
		}

		response := operationResponse{}
		if op != nil {
			response.Status = op.Status.String()
			if op.OperationHash != (common.Hash{}) {
				response.OperationHash = op.OperationHash.Hex()
			}
		}

		if err != nil {
			response.Error = err.Error()
			s.writeJson(w, http.StatusBadGateway, response)
			return
		}
		s.writeJson(w, http.StatusOK, response)
	}
}
