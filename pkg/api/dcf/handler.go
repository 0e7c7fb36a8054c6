package dcf

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"dcfengine/pkg/core/assumption"
	"dcfengine/pkg/core/export"
	"dcfengine/pkg/core/pipeline"
	"dcfengine/pkg/core/statement"
	"dcfengine/pkg/core/store"
	"dcfengine/pkg/models"
)

var orchestrator *pipeline.ModelOrchestrator
var runStore *store.RunStore

// InitHandler wires the handler package. A nil orchestrator gets default
// validation settings; a nil run store disables persistence endpoints.
func InitHandler(o *pipeline.ModelOrchestrator, rs *store.RunStore) {
	if o == nil {
		o = pipeline.NewModelOrchestrator()
	}
	orchestrator = o
	runStore = rs
}

type ValuationRequest struct {
	CompanyData *models.CompanyData `json:"company_data"`
	Assumptions json.RawMessage     `json:"assumptions"`
	Save        bool                `json:"save"`
}

type ValuationResponse struct {
	*models.ModelOutput
	RunID string `json:"run_id,omitempty"`
}

// ReportRequest is a model output plus optional analyst notes for the
// rendered report.
type ReportRequest struct {
	models.ModelOutput
	Notes string `json:"notes"`
}

// HandleCalculate runs the full pipeline for a posted company payload.
func HandleCalculate(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ValuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if req.CompanyData == nil {
		http.Error(w, "Company data is required", http.StatusBadRequest)
		return
	}

	a, err := assumption.Parse(req.Assumptions)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid assumptions: %v", err), http.StatusBadRequest)
		return
	}

	fmt.Printf("[DCF] Valuation request: %s (%d projection years)\n",
		req.CompanyData.CompanyName, a.ProjectionYears)

	output, err := orchestrator.BuildModel(req.CompanyData, a)
	if err != nil {
		if errors.Is(err, statement.ErrNoIncomeHistory) || errors.Is(err, statement.ErrNoParseableYear) {
			http.Error(w, fmt.Sprintf("Cannot build model: %v", err), http.StatusBadRequest)
		} else {
			http.Error(w, fmt.Sprintf("Model build failed: %v", err), http.StatusInternalServerError)
		}
		return
	}

	resp := ValuationResponse{ModelOutput: output}
	if req.Save {
		if runStore == nil {
			fmt.Println("[WARNING] Save requested but run persistence is not configured")
		} else {
			id, err := runStore.Save(r.Context(), req.CompanyData, output)
			if err != nil {
				fmt.Printf("[WARNING] Failed to save run: %v\n", err)
			} else {
				resp.RunID = id
				fmt.Printf("[DCF] Run saved: %s\n", id)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleExportExcel returns a posted model output as an xlsx download.
func HandleExportExcel(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	output, ok := decodeModelOutput(w, r)
	if !ok {
		return
	}

	exporter := export.NewExporter(output)
	blob, err := exporter.ExcelBytes()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error exporting Excel: %v", err), http.StatusInternalServerError)
		return
	}

	fmt.Printf("[DCF] Excel export: %s (%d bytes)\n", exporter.ExcelFilename(), len(blob))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.ExcelFilename()))
	w.Write(blob)
}

// HandleExportCSV returns a posted model output as a zip of CSV files.
func HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	output, ok := decodeModelOutput(w, r)
	if !ok {
		return
	}

	exporter := export.NewExporter(output)
	blob, err := exporter.CSVBundle()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error exporting CSV: %v", err), http.StatusInternalServerError)
		return
	}

	fmt.Printf("[DCF] CSV export: %s (%d bytes)\n", exporter.BundleFilename(), len(blob))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.BundleFilename()))
	w.Write(blob)
}

// HandleReport renders a posted model output as an HTML valuation report.
func HandleReport(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.DCFResults == nil {
		http.Error(w, "DCF results are required", http.StatusBadRequest)
		return
	}

	exporter := export.NewExporter(&req.ModelOutput)
	html, err := exporter.HTMLReport(req.Notes)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error rendering report: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

// HandleRuns serves stored runs: GET lists recent runs, GET with ?id=
// returns one full run.
func HandleRuns(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if runStore == nil {
		http.Error(w, "Run persistence is not configured", http.StatusServiceUnavailable)
		return
	}

	if id := r.URL.Query().Get("id"); id != "" {
		record, err := runStore.Load(r.Context(), id)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to load run: %v", err), http.StatusInternalServerError)
			return
		}
		if record == nil {
			http.Error(w, fmt.Sprintf("Run not found: %s", id), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(record)
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	runs, err := runStore.List(r.Context(), limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list runs: %v", err), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// HandleHealth reports service liveness.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "dcfengine"})
}

// decodeModelOutput reads the shared export request body and enforces the
// presence of both halves of the payload.
func decodeModelOutput(w http.ResponseWriter, r *http.Request) (*models.ModelOutput, bool) {
	var output models.ModelOutput
	if err := json.NewDecoder(r.Body).Decode(&output); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return nil, false
	}
	if output.OperatingModel == nil || output.DCFResults == nil {
		http.Error(w, "Operating model and DCF results are required", http.StatusBadRequest)
		return nil, false
	}
	return &output, true
}
