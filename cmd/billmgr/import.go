package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-while/go-pokr/internal/database"
	"github.com/go-while/go-pokr/internal/errs"
	"github.com/go-while/go-pokr/internal/models"
)

// importFile is the document read by "billmgr import"
type importFile struct {
	Assemblies []*models.Assembly   `json:"assemblies"`
	Statuses   []*models.BillStatus `json:"statuses"`
	Bills      []billRecord         `json:"bills"`
}

// billRecord carries proposed_date as YYYY-MM-DD
type billRecord struct {
	ID               string `json:"id"`
	ProposedDate     string `json:"proposed_date"`
	Name             string `json:"name"`
	Summary          string `json:"summary"`
	Sponsor          string `json:"sponsor"`
	StatusID         int64  `json:"status_id"`
	AssemblyID       int64  `json:"assembly_id"`
	LinkID           string `json:"link_id"`
	DocumentPDFPath  string `json:"document_pdf_path"`
	DocumentTextPath string `json:"document_text_path"`
}

func (r billRecord) toBill() (*models.Bill, error) {
	if strings.TrimSpace(r.ID) == "" {
		return nil, fmt.Errorf("%w: bill without id", models.ErrMalformedRequest)
	}
	b := &models.Bill{
		ID:               r.ID,
		Name:             r.Name,
		Summary:          r.Summary,
		Sponsor:          r.Sponsor,
		StatusID:         r.StatusID,
		AssemblyID:       r.AssemblyID,
		LinkID:           r.LinkID,
		DocumentPDFPath:  r.DocumentPDFPath,
		DocumentTextPath: r.DocumentTextPath,
	}
	if r.ProposedDate != "" {
		d, err := time.Parse(models.DateLayout, r.ProposedDate)
		if err != nil {
			return nil, fmt.Errorf("%w: bill %s proposed_date %q", models.ErrMalformedRequest, r.ID, r.ProposedDate)
		}
		b.ProposedDate = d
	}
	return b, nil
}

func readImportFile(path string) (*database.ImportBatch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read %s", path)
	}
	return parseImport(raw)
}

func parseImport(raw []byte) (*database.ImportBatch, error) {
	var doc importFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errs.Wrap(err, "decode import document")
	}
	batch := &database.ImportBatch{
		Assemblies: doc.Assemblies,
		Statuses:   doc.Statuses,
		Bills:      make([]*models.Bill, 0, len(doc.Bills)),
	}
	for _, r := range doc.Bills {
		b, err := r.toBill()
		if err != nil {
			return nil, err
		}
		batch.Bills = append(batch.Bills, b)
	}
	return batch, nil
}
