package web

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-pokr/internal/models"
)

// BillPageData represents data for the bill detail page
type BillPageData struct {
	TemplateData
	Bill *models.Bill
}

// lookupBill loads the bill named by the :id parameter, rendering the
// matching error page when that fails.
func (s *WebServer) lookupBill(c *gin.Context) (*models.Bill, bool) {
	bill, err := s.Repo.FindBillByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderRepoError(c, err)
		return nil, false
	}
	return bill, true
}

// billPage handles GET /bill/:id
func (s *WebServer) billPage(c *gin.Context) {
	bill, ok := s.lookupBill(c)
	if !ok {
		return
	}
	data := BillPageData{
		TemplateData: s.getBaseTemplateData(c, bill.Name, Breadcrumb{Name: bill.ID}),
		Bill:         bill,
	}
	s.renderTemplate(c, http.StatusOK, "bill.html", data)
}

// billOfficial handles GET /bill/:id/official
func (s *WebServer) billOfficial(c *gin.Context) {
	bill, ok := s.lookupBill(c)
	if !ok {
		return
	}
	c.Redirect(http.StatusFound, s.officialURL(bill))
}

func (s *WebServer) officialURL(bill *models.Bill) string {
	return fmt.Sprintf(s.Config.OfficialURL, url.QueryEscape(bill.LinkID))
}
