package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cpu-monitoring/internal/domain"
	"cpu-monitoring/internal/monitoring"
	"cpu-monitoring/internal/util"
)

const dateLayout = "2006-01-02"

// Layouts accepted for startTime/endTime. Values without an offset are read
// in the service location.
var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

type CPUMonitoring struct {
	Response APIResponse
	logger   *util.MonitorLogger
	service  *monitoring.Service
}

func (c *CPUMonitoring) Init(service *monitoring.Service, webSlogger *util.MonitorLogger) {
	c.service = service
	c.logger = webSlogger
}

func (c *CPUMonitoring) GetUsageByMinuteHandler(w http.ResponseWriter, r *http.Request) {
	if !c.allowGet(w, r) {
		return
	}

	loc := c.service.Location()

	startTime, err := parseDateTime(r.URL.Query().Get("startTime"), loc)
	if err != nil {
		c.badParameter(w, "startTime", err)
		return
	}
	endTime, err := parseDateTime(r.URL.Query().Get("endTime"), loc)
	if err != nil {
		c.badParameter(w, "endTime", err)
		return
	}

	usage, err := c.service.QueryByMinute(r.Context(), startTime, endTime)
	if err != nil {
		c.queryFailed(w, err)
		return
	}

	c.Response.WriteResultResponse(w, usage)
}

func (c *CPUMonitoring) GetUsageStatsByHourHandler(w http.ResponseWriter, r *http.Request) {
	if !c.allowGet(w, r) {
		return
	}

	startDate, endDate, ok := c.dateParams(w, r)
	if !ok {
		return
	}

	usage, err := c.service.QueryByHour(r.Context(), startDate, endDate)
	if err != nil {
		c.queryFailed(w, err)
		return
	}

	c.Response.WriteResultResponse(w, usage)
}

func (c *CPUMonitoring) GetUsageStatsByDayHandler(w http.ResponseWriter, r *http.Request) {
	if !c.allowGet(w, r) {
		return
	}

	startDate, endDate, ok := c.dateParams(w, r)
	if !ok {
		return
	}

	usage, err := c.service.QueryByDay(r.Context(), startDate, endDate)
	if err != nil {
		c.queryFailed(w, err)
		return
	}

	c.Response.WriteResultResponse(w, usage)
}

func (c *CPUMonitoring) allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	c.logger.LogEvent(util.LOG_LEVEL_ERROR, "Method not allowed - ", r.Method)
	c.Response.WriteErrorResponse(w, ErrMethodNotAllowed, http.StatusMethodNotAllowed)
	return false
}

func (c *CPUMonitoring) dateParams(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	loc := c.service.Location()

	startDate, err := parseDate(r.URL.Query().Get("startDate"), loc)
	if err != nil {
		c.badParameter(w, "startDate", err)
		return time.Time{}, time.Time{}, false
	}
	endDate, err := parseDate(r.URL.Query().Get("endDate"), loc)
	if err != nil {
		c.badParameter(w, "endDate", err)
		return time.Time{}, time.Time{}, false
	}
	return startDate, endDate, true
}

func (c *CPUMonitoring) badParameter(w http.ResponseWriter, name string, err error) {
	c.logger.LogEvent(util.LOG_LEVEL_ERROR, "While reading ", name, " from URL. Err - ", err)
	c.Response.WriteErrorResponse(w, fmt.Errorf("%w: %s: %v", ErrInvalidParameters, name, err), http.StatusBadRequest)
}

func (c *CPUMonitoring) queryFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		c.Response.WriteErrorResponse(w, err, http.StatusBadRequest)
	case errors.Is(err, context.Canceled):
		c.logger.LogEvent(util.LOG_LEVEL_WARN, "Context cancelled")
		c.Response.WriteErrorResponse(w, ErrRequestCancelled, http.StatusRequestTimeout)
	default:
		c.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occurred while querying cpu usage. Err - ", err)
		c.Response.WriteErrorResponse(w, err, http.StatusInternalServerError)
	}
}

func parseDateTime(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("value is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 date-time", value)
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("value is required")
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a date in %s form", value, dateLayout)
	}
	return t, nil
}
