package server

import (
	"bytes"
	"errors"
	"maps"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AntoineGS/loadtracker/internal/fragment"
	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/push"
	"github.com/AntoineGS/loadtracker/internal/state"
)

const htmlContentType = "text/html; charset=utf-8"

// UpdateRequest is the save body.
type UpdateRequest struct {
	UserNonCarrierDelay *string `json:"userNonCarrierDelay"`
	Comments            *string `json:"comments"`
	DetailLineID        int64   `json:"detailLineId"`
	Year                int     `json:"year"`
	Month               int     `json:"month"`
	Exception           bool    `json:"exception"`
}

// RowOf renders a stored load as a table row.
func RowOf(r state.LoadRecord) loads.Row {
	orig := ""
	if r.UserDelay != nil {
		orig = *r.UserDelay
	}
	effective := r.EffectiveDelay()

	return loads.Row{
		ID:                r.ID,
		Columns:           maps.Clone(r.Fields),
		OnTime:            onTimeCell(r.OnTime),
		Exception:         loads.CheckboxCell(r.Exception),
		Delay:             effective,
		Comments:          r.Comments,
		StatusText:        statusText(r),
		OriginalUserDelay: orig,
		EffectiveDelay:    effective,
	}
}

func onTimeCell(v string) loads.Cell {
	switch v {
	case "Y":
		return loads.SelectCell("Y", "Yes")
	case "N":
		return loads.SelectCell("N", "No")
	default:
		return loads.SelectCell("", "")
	}
}

// statusText follows the on-time flag when it is known.
func statusText(r state.LoadRecord) string {
	b := loads.ClassifyValues(loads.ParseText(r.OnTime), boolState(r.Exception), r.StatusText)
	if r.OnTime == "" || b == loads.BucketUnknown {
		return r.StatusText
	}
	return b.String()
}

func boolState(b bool) loads.TriState {
	if b {
		return loads.Yes
	}
	return loads.No
}

// periodOf reads year and month from the query, falling back to the
// server's period.
func (s *Server) periodOf(c *gin.Context) (loads.Period, bool) {
	p := s.period
	if y := c.Query("year"); y != "" {
		v, err := strconv.Atoi(y)
		if err != nil {
			return p, false
		}
		p.Year = v
	}
	if m := c.Query("month"); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil {
			return p, false
		}
		p.Month = v
	}
	return p, p.Valid()
}

func (s *Server) handleTable(c *gin.Context) {
	p, ok := s.periodOf(c)
	if !ok {
		c.String(http.StatusBadRequest, "Invalid period.")
		return
	}
	customer := c.DefaultQuery("customer", s.customer)

	records, err := s.store.ListLoads(c.Request.Context(), customer, p)
	if err != nil {
		s.logger.Error("listing loads", "customer", customer, "period", p.Key(), "error", err)
		c.String(http.StatusInternalServerError, "Could not load the table.")
		return
	}

	page := fragment.Page{Customer: customer, Period: p, Rows: make([]loads.Row, 0, len(records))}
	for _, r := range records {
		page.Rows = append(page.Rows, RowOf(r))
	}

	var buf bytes.Buffer
	if err := fragment.RenderPage(&buf, page); err != nil {
		s.logger.Error("rendering table", "error", err)
		c.String(http.StatusInternalServerError, "Could not render the table.")
		return
	}
	s.metrics.renders.WithLabelValues("table").Inc()
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

func (s *Server) handleRow(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid id.")
		return
	}
	p, ok := s.periodOf(c)
	if !ok {
		c.String(http.StatusBadRequest, "Invalid period.")
		return
	}

	rec, err := s.store.GetLoad(c.Request.Context(), id, p)
	if errors.Is(err, state.ErrLoadNotFound) {
		c.String(http.StatusNotFound, "Load not found.")
		return
	}
	if err != nil {
		s.logger.Error("getting load", "row", id, "error", err)
		c.String(http.StatusInternalServerError, "Could not load the row.")
		return
	}

	body, err := fragment.Row(RowOf(*rec))
	if err != nil {
		s.logger.Error("rendering row", "row", id, "error", err)
		c.String(http.StatusInternalServerError, "Could not render the row.")
		return
	}
	s.metrics.renders.WithLabelValues("row").Inc()
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, htmlContentType, body)
}

func (s *Server) handleUpdate(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.updates.WithLabelValues("invalid").Inc()
		c.String(http.StatusBadRequest, "Invalid request body.")
		return
	}
	p := loads.Period{Year: req.Year, Month: req.Month}
	if req.DetailLineID <= 0 || !p.Valid() {
		s.metrics.updates.WithLabelValues("invalid").Inc()
		c.String(http.StatusBadRequest, "Missing load id or period.")
		return
	}

	rec, err := s.store.UpdateLoad(c.Request.Context(), req.DetailLineID, p, state.LoadEdit{
		Exception: req.Exception,
		UserDelay: req.UserNonCarrierDelay,
		Comments:  req.Comments,
	})
	if errors.Is(err, state.ErrLoadNotFound) {
		s.metrics.updates.WithLabelValues("not_found").Inc()
		c.String(http.StatusNotFound, "Load not found.")
		return
	}
	if err != nil {
		s.metrics.updates.WithLabelValues("error").Inc()
		s.logger.Error("updating load", "row", req.DetailLineID, "error", err)
		c.String(http.StatusInternalServerError, "Could not save the load.")
		return
	}
	s.metrics.updates.WithLabelValues("ok").Inc()

	group := GroupKey(rec.Customer, rec.Period)
	n := s.hub.Broadcast(group, push.Message{Type: push.TypeRowUpdated, ID: rec.ID})
	s.logger.Info("load updated", "row", rec.ID, "group", group, "notified", n)

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": rec.ID})
}
