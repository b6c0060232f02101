package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-pokr/internal/database"
	"github.com/go-while/go-pokr/internal/errs"
	"github.com/go-while/go-pokr/internal/logging"
	"github.com/go-while/go-pokr/internal/models"
)

// billListAPI handles GET /bill/list, the server side data source of the grid
func (s *WebServer) billListAPI(c *gin.Context) {
	q, draw, err := s.parseBillQuery(c)
	if err != nil {
		s.apiError(c, err)
		return
	}

	listing, err := database.PageListing(c.Request.Context(), s.Repo, q)
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewListResponse(draw, listing.Bills, listing.Total, listing.Filtered))
}

// parseBillQuery reads the DataTables parameters. Absent values take their
// defaults; present but malformed values are rejected.
func (s *WebServer) parseBillQuery(c *gin.Context) (models.BillQuery, int, error) {
	var q models.BillQuery

	draw, err := queryInt(c, "draw", 1)
	if err != nil {
		return q, 0, err
	}
	start, err := queryInt(c, "start", 0)
	if err != nil {
		return q, 0, err
	}
	if start < 0 {
		return q, 0, fmt.Errorf("%w: start must not be negative", models.ErrMalformedRequest)
	}
	length, err := queryInt(c, "length", s.Config.PageLength)
	if err != nil {
		return q, 0, err
	}
	if length <= 0 {
		return q, 0, fmt.Errorf("%w: length must be positive", models.ErrMalformedRequest)
	}
	if s.Config.MaxPageLength > 0 && length > s.Config.MaxPageLength {
		length = s.Config.MaxPageLength
	}

	sort := models.DefaultSort
	if raw := c.Query("order[0][column]"); raw != "" {
		col, err := models.ParseSortColumn(raw)
		if err != nil {
			return q, 0, err
		}
		sort = models.SortSpec{Column: col, Direction: models.ParseSortDirection(c.Query("order[0][dir]"))}
	}

	statusID, err := queryInt64(c, "status_id", 0)
	if err != nil {
		return q, 0, err
	}
	assemblyID, err := s.resolveAssembly(c)
	if err != nil {
		return q, 0, err
	}

	q = models.BillQuery{
		AssemblyID: assemblyID,
		StatusID:   statusID,
		Sort:       sort,
		Offset:     start,
		Limit:      length,
	}
	return q, draw, nil
}

// apiError answers JSON endpoints, 400 for bad parameters and 500 otherwise
func (s *WebServer) apiError(c *gin.Context, err error) {
	if errors.Is(err, models.ErrMalformedRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logging.Error(c.Request.Context(), "bill list failed", slog.Any("err", errs.Loggable(err)))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
