package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"dcfengine/pkg/api/dcf"
	"dcfengine/pkg/core/pipeline"
	"dcfengine/pkg/core/store"
)

// ServerConfig is layered: defaults, then config/server.yaml, then DCF_*
// environment variables.
type ServerConfig struct {
	Port             int    `yaml:"port" envconfig:"PORT"`
	DatabaseURL      string `yaml:"database_url" envconfig:"DATABASE_URL"`
	RunStoreDir      string `yaml:"run_store_dir" envconfig:"RUN_STORE_DIR"`
	StrictValidation bool   `yaml:"strict_validation" envconfig:"STRICT_VALIDATION"`
}

func loadConfig() ServerConfig {
	cfg := ServerConfig{Port: 8080}

	// Optional YAML file; absence is fine.
	if data, err := os.ReadFile("config/server.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fmt.Printf("[WARNING] Bad config/server.yaml: %v\n", err)
		}
	}

	// Environment wins over the file.
	if err := envconfig.Process("DCF", &cfg); err != nil {
		fmt.Printf("[WARNING] Failed to read DCF_* environment overrides: %v\n", err)
	}
	return cfg
}

func main() {
	// Load environment variables
	godotenv.Load()

	cfg := loadConfig()

	// Run persistence: Postgres when configured, file fallback otherwise.
	var runStore *store.RunStore
	if cfg.DatabaseURL != "" {
		if err := store.InitDBWithURL(context.Background(), cfg.DatabaseURL); err != nil {
			fmt.Printf("[WARNING] DB unavailable, falling back to file store: %v\n", err)
		}
		runStore = store.NewRunStore(store.GetPool(), cfg.RunStoreDir)
		defer store.Close()
	} else if cfg.RunStoreDir != "" {
		runStore = store.NewRunStore(nil, cfg.RunStoreDir)
	}

	orchestrator := pipeline.NewModelOrchestrator()
	if cfg.StrictValidation {
		orchestrator.SetValidationConfig(pipeline.ValidationConfig{
			EnableStrictValidation: true,
			BalanceSheetTolerance:  0.1,
			ArticulationTolerance:  0.1,
		})
	}

	// Valuation endpoints
	dcf.InitHandler(orchestrator, runStore)
	http.HandleFunc("/api/valuation", dcf.HandleCalculate)
	http.HandleFunc("/api/valuation/report", dcf.HandleReport)
	http.HandleFunc("/api/valuation/runs", dcf.HandleRuns)

	// Export endpoints
	http.HandleFunc("/api/export/excel", dcf.HandleExportExcel)
	http.HandleFunc("/api/export/csv", dcf.HandleExportCSV)

	http.HandleFunc("/api/health", dcf.HandleHealth)

	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("API server starting on %s...\n", addr)
	fmt.Println("  - POST /api/valuation          (CompanyData + Assumptions -> model + DCF)")
	fmt.Println("  - POST /api/valuation/report   (model output -> HTML report)")
	fmt.Println("  - GET  /api/valuation/runs     (stored runs, ?id= for one)")
	fmt.Println("  - POST /api/export/excel       (model output -> xlsx)")
	fmt.Println("  - POST /api/export/csv         (model output -> zip of CSVs)")
	fmt.Println("  - GET  /api/health")

	if err := http.ListenAndServe(addr, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
