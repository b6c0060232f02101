package web

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-pokr/internal/documents"
	"github.com/go-while/go-pokr/internal/errs"
	"github.com/go-while/go-pokr/internal/logging"
	"github.com/go-while/go-pokr/internal/models"
)

// BillTextPageData represents data for the annotated text page
type BillTextPageData struct {
	TemplateData
	Bill       *models.Bill
	Text       *documents.Text
	GlossaryJS template.JS
}

// billPDF handles GET /bill/:id/pdf
func (s *WebServer) billPDF(c *gin.Context) {
	bill, ok := s.lookupBill(c)
	if !ok {
		return
	}
	if !bill.HasPDF() {
		s.renderNotFound(c)
		return
	}
	full, _, err := s.Docs.Stat(bill.DocumentPDFPath)
	if err != nil {
		s.renderRepoError(c, err)
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("filename=%s.pdf", bill.ID))
	c.File(full)
}

// billText handles GET /bill/:id/text
func (s *WebServer) billText(c *gin.Context) {
	bill, ok := s.lookupBill(c)
	if !ok {
		return
	}
	if !bill.HasText() {
		s.renderNotFound(c)
		return
	}
	text, err := s.Docs.ReadText(bill.DocumentTextPath)
	if err != nil {
		s.renderRepoError(c, err)
		return
	}

	// the text stays readable without annotations
	script, err := s.Glossary.Script(c.Request.Context())
	if err != nil {
		logging.Warn(c.Request.Context(), "glossary unavailable", slog.Any("err", errs.Loggable(err)))
		script = ""
	}

	data := BillTextPageData{
		TemplateData: s.getBaseTemplateData(c, bill.Name,
			Breadcrumb{Name: bill.ID, URL: "/bill/" + bill.ID},
			Breadcrumb{Name: "Text"}),
		Bill:       bill,
		Text:       text,
		GlossaryJS: template.JS(script),
	}
	s.renderTemplate(c, http.StatusOK, "bill-text.html", data)
}
