package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/agbru/picalc/internal/chudnovsky"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/service"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleAlgorithms lists the registered calculators.
func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"algorithms": s.factory.List(),
		"schedules":  chudnovsky.ScheduleNames,
	})
}

// handlePi computes pi for the query parameters digits, algo, schedule,
// chunk, workers and format.
func (s *Server) handlePi(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, err := parsePiParams(r.URL.Query())
	if err != nil {
		s.writeErrorResponse(w, statusFor(err), err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()
	resp, err := s.service.Calculate(ctx, req)
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, service.ErrMaxDigitsExceeded) {
			s.writeErrorResponse(w, status, fmt.Sprintf("'digits' exceeds the maximum allowed (%d)", s.securityConfig.MaxDigits))
			return
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error("calculation failed", err, logging.Uint64("digits", req.Digits))
		}
		s.writeJSONResponse(w, status, Response{Digits: req.Digits, Algorithm: req.Algo, Error: err.Error()})
		return
	}

	if resp.Cached {
		cacheServed.Inc()
	}
	s.writeJSONResponse(w, http.StatusOK, Response{
		Digits:    resp.Digits,
		Algorithm: resp.Algorithm,
		Schedule:  resp.Schedule,
		Workers:   resp.Workers,
		Duration:  resp.Duration.String(),
		Pi:        resp.Pi,
		Cached:    resp.Cached,
	})
}

// statusFor maps a request or calculation error to an HTTP status code.
func statusFor(err error) int {
	var cfgErr apperrors.ConfigError
	var valErr apperrors.ValidationError
	var unknown *chudnovsky.UnknownCalculatorError
	switch {
	case errors.Is(err, service.ErrMaxDigitsExceeded), errors.As(err, &cfgErr), errors.As(err, &valErr), errors.As(err, &unknown):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	}
	return http.StatusInternalServerError
}

// parsePiParams validates the query string of a /pi request.
func parsePiParams(q url.Values) (service.Request, error) {
	var req service.Request

	digitsStr := q.Get("digits")
	if digitsStr == "" {
		return req, apperrors.NewValidationError("digits", "missing", nil)
	}
	d, err := strconv.ParseUint(digitsStr, 10, 64)
	if err != nil {
		return req, apperrors.NewValidationError("digits", "must be a non-negative integer", digitsStr)
	}
	req.Digits = d
	req.Algo = q.Get("algo")
	req.Schedule = q.Get("schedule")

	if v := q.Get("chunk"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, apperrors.NewValidationError("chunk", "must be a non-negative integer", v)
		}
		req.Chunk = n
	}
	if v := q.Get("workers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, apperrors.NewValidationError("workers", "must be a positive integer", v)
		}
		req.Workers = n
	}
	if v := q.Get("format"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, apperrors.NewValidationError("format", "must be a boolean", v)
		}
		req.Format = b
	}
	return req, nil
}

// writeJSONResponse writes data as JSON with the given status code.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

// writeErrorResponse writes a standardized error body.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
