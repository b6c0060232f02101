package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-pokr/internal/database"
	"github.com/go-while/go-pokr/internal/models"
)

// BillsPageData represents data for the status summary page
type BillsPageData struct {
	TemplateData
	AssemblyID   int64
	StatusID     int64 // 0 unless the listing is pre-filtered
	StatusCounts []models.StatusCount
	ListURL      string // data source of the grid
	PageLength   int
}

// billsPage handles GET /bill/
func (s *WebServer) billsPage(c *gin.Context) {
	assemblyID, err := s.resolveAssembly(c)
	if err != nil {
		s.renderRepoError(c, err)
		return
	}
	statusID, err := queryInt64(c, "status_id", 0)
	if err != nil {
		s.renderRepoError(c, err)
		return
	}

	counts, err := database.StatusSummary(c.Request.Context(), s.Repo, assemblyID)
	if err != nil {
		s.renderRepoError(c, err)
		return
	}

	title := fmt.Sprintf("Bills of assembly %d", assemblyID)
	data := BillsPageData{
		TemplateData: s.getBaseTemplateData(c, title),
		AssemblyID:   assemblyID,
		StatusID:     statusID,
		StatusCounts: counts,
		ListURL:      listURL(assemblyID, statusID),
		PageLength:   s.Config.PageLength,
	}
	data.Breadcrumbs = []Breadcrumb{{Name: "Bills"}}
	s.renderTemplate(c, http.StatusOK, "bills.html", data)
}

func listURL(assemblyID, statusID int64) string {
	q := url.Values{}
	q.Set("assembly_id", strconv.FormatInt(assemblyID, 10))
	if statusID != 0 {
		q.Set("status_id", strconv.FormatInt(statusID, 10))
	}
	return "/bill/list?" + q.Encode()
}
