// Package ingest loads company financials and assumption sets from local
// files. Sources are forgiving: plain JSON, JSON with common authoring
// mistakes, and Hjson all parse through the same chain, and statement
// tables can additionally be lifted out of HTML documents.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"dcfengine/pkg/core/assumption"
	"dcfengine/pkg/core/utils"
	"dcfengine/pkg/models"
)

// LoadCompanyData reads a company payload from disk. The file may be JSON,
// sloppy JSON or Hjson.
func LoadCompanyData(path string) (*models.CompanyData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read company data: %w", err)
	}
	var company models.CompanyData
	if _, err := utils.SmartParse(string(raw), &company); err != nil {
		return nil, fmt.Errorf("parse company data %s: %w", filepath.Base(path), err)
	}
	return &company, nil
}

// LoadAssumptions reads an assumption file from disk, normalizes it to
// strict JSON and layers it over the defaults. A missing path returns the
// defaults untouched.
func LoadAssumptions(path string) (assumption.Assumptions, error) {
	if path == "" {
		return assumption.Defaults(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return assumption.Assumptions{}, fmt.Errorf("read assumptions: %w", err)
	}
	var probe map[string]interface{}
	normalized, err := utils.SmartParse(string(raw), &probe)
	if err != nil {
		return assumption.Assumptions{}, fmt.Errorf("parse assumptions %s: %w", filepath.Base(path), err)
	}
	return assumption.Parse([]byte(normalized))
}
