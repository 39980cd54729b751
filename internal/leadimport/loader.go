// Package leadimport seeds leads from an xlsx sheet at startup. Column
// positions are auto-detected from the header row, so exports from different
// CRM tools load without remapping.
package leadimport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"lead-insights-go/internal/logger"
	"lead-insights-go/internal/store"
	"lead-insights-go/internal/types"
)

// Load reads lead rows from the first sheet. Rows without a name are
// skipped quietly.
func Load(path string) ([]types.LeadData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	header := rows[0]
	idIdx, nameIdx, companyIdx, industryIdx := -1, -1, -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case nameIdx == -1 && (strings.Contains(l, "name") || strings.Contains(l, "contact")):
			nameIdx = i
		case companyIdx == -1 && (strings.Contains(l, "company") || strings.Contains(l, "organisation") || strings.Contains(l, "organization")):
			companyIdx = i
		case industryIdx == -1 && (strings.Contains(l, "industry") || strings.Contains(l, "sector")):
			industryIdx = i
		case idIdx == -1 && (l == "id" || strings.Contains(l, "lead id") || strings.Contains(l, "leadid")):
			idIdx = i
		}
	}
	if nameIdx == -1 {
		// common export layout: name in the first column
		nameIdx = 0
	}

	cell := func(r []string, idx int) string {
		if idx >= 0 && idx < len(r) {
			return strings.TrimSpace(r[idx])
		}
		return ""
	}

	var out []types.LeadData
	for i, r := range rows {
		if i == 0 {
			continue
		}
		lead := types.LeadData{
			ID:        cell(r, idIdx),
			Name:      cell(r, nameIdx),
			Company:   cell(r, companyIdx),
			CreatedAt: time.Now().UTC(),
		}
		lead.OSI.Industry = cell(r, industryIdx)
		if lead.Name == "" {
			continue
		}
		if lead.ID == "" {
			lead.ID = strings.ReplaceAll(uuid.New().String(), "-", "")
		}
		out = append(out, lead)
	}
	return out, nil
}

// Seed loads the sheet and inserts every lead; leads already in the store
// keep their existing record. Individual failures are
// logged and skipped so one bad row does not abort the import.
func Seed(ctx context.Context, path string, leads store.LeadStore, log *logger.Logger) (int, error) {
	records, err := Load(path)
	if err != nil {
		return 0, err
	}
	l := log.WithComponent("leadimport").WithField("path", path)
	seeded := 0
	for _, lead := range records {
		if err := leads.CreateLead(ctx, lead); err != nil {
			l.WithError(err).WithField("lead_id", lead.ID).Warn("seed row skipped")
			continue
		}
		seeded++
	}
	l.WithField("seeded", seeded).Info("lead seeding complete")
	return seeded, nil
}
