package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"devicelab/internal/aggregate"
	"devicelab/internal/domain"
	"devicelab/internal/util"
)

// Chart serves the data behind the results chart: the most recent window of
// launch-time measurements plus their average.
type Chart struct {
	Response   APIResponse
	logger     *util.EventLogger
	store      domain.Store
	windowSize int
}

func (c *Chart) Init(store domain.Store, logger *util.EventLogger, windowSize int) {
	c.store = store
	c.logger = logger
	c.windowSize = windowSize
}

// GetChartDataHandler returns {"data": [...], "average": n}. An empty store
// is a valid empty chart, not an error; the average field is omitted then.
func (c *Chart) GetChartDataHandler(w http.ResponseWriter, r *http.Request) {
	application := r.URL.Query().Get("application")

	items, err := c.store.LaunchTimes(r.Context(), application)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.logger.Warnf("Chart data request cancelled")
			c.Response.WriteErrorResponseWithStatusCode(w, ErrRequestCancelled, http.StatusRequestTimeout)
			return
		}
		c.logger.Errorf("Failed to load launch times: %v", err)
		c.Response.WriteErrorResponseWithStatusCode(w,
			fmt.Errorf("%w: %v", ErrDataIntegrity, err), http.StatusInternalServerError)
		return
	}

	window, err := aggregate.ComputeWindow(items, c.windowSize)
	if err != nil {
		// a non-positive window size is a deployment bug, not a client error
		c.logger.Errorf("Chart window misconfigured: %v", err)
		c.Response.WriteErrorResponse(w, err)
		return
	}

	writeJSON(w, aggregate.BuildPayload(window))
}
