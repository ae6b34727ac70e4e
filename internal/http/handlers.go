package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"rewards/internal/core"
	"rewards/internal/log"
)

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	customerID := sanitizeInput(r.PathValue("customerId"))

	rng, err := parseRange(r.URL.Query())
	if err != nil {
		s.events.LogValidationFailed(r.Context(), customerID, r.URL.Query().Get(paramFromDate), r.URL.Query().Get(paramToDate), err)
		s.writeError(w, r, err)
		return
	}

	summary, err := s.rewardSummary(r.Context(), customerID, rng)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewRewardsResponse(summary))
}

// rewardSummary serves from the cache when it can and collapses concurrent
// misses for the same key into one calculation.
func (s *Server) rewardSummary(ctx context.Context, customerID string, rng core.DateRange) (core.RewardSummary, error) {
	key := summaryKey(customerID, rng)

	if s.summaries != nil && s.summaries.Enabled() {
		cached, ok := s.summaries.Get(key)
		s.metrics.RecordCacheLookup(ok)
		if ok {
			log.FromContext(ctx).DebugContext(ctx, "Summary served from cache",
				log.FieldCustomerID, customerID, log.FieldCacheHit, true)
			cached.CustomerID = customerID
			return cached, nil
		}
	}

	// The shared calculation must not die with whichever caller started it;
	// store timeouts still bound it.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(key, func() (any, error) {
		start := time.Now()
		summary, err := s.calc.CalculateRewards(flightCtx, customerID, rng)
		s.metrics.RecordCalculation(calculationOutcome(err), time.Since(start).Seconds())
		if err != nil {
			return core.RewardSummary{}, err
		}
		s.metrics.RecordPointsAwarded(summary.Total)
		if s.summaries != nil && s.summaries.Enabled() {
			s.summaries.Set(key, summary)
		}
		s.publish(flightCtx, summary)
		return summary, nil
	})
	if err != nil {
		return core.RewardSummary{}, err
	}

	summary := v.(core.RewardSummary)
	summary.CustomerID = customerID
	return summary, nil
}

// publish sends the event in the background so a slow broker never delays
// the response.
func (s *Server) publish(ctx context.Context, summary core.RewardSummary) {
	if s.publisher == nil {
		return
	}
	logger := log.FromContext(ctx)
	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		err := s.publisher.PublishRewardsCalculated(ctx, summary)
		s.metrics.RecordEventPublished(err)
		if err != nil {
			logger.WarnContext(ctx, "Failed to publish rewards event",
				log.FieldCustomerID, summary.CustomerID,
				log.FieldError, err.Error())
		}
	}()
}

func (s *Server) handleMissingCustomer(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, core.ErrMissingCustomerID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorBody(w, http.StatusNotFound, "No handler for "+r.Method+" "+r.URL.Path)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordRateLimited()
	writeErrorBody(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

func calculationOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, core.ErrCustomerNotFound):
		return "not_found"
	case isClientError(err):
		return "invalid"
	default:
		return "error"
	}
}

func summaryKey(customerID string, rng core.DateRange) string {
	return core.CustomerKey(customerID) + "|" + rng.From.String() + "|" + rng.To.String()
}
