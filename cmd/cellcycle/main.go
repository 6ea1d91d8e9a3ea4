// cellcycle loads battery-cycler exports, derives the step and per-cycle
// summary tables, and persists or exports the results.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/electrochem-tools/cellcycle/internal/loaders"
	"github.com/electrochem-tools/cellcycle/internal/log"
	"github.com/electrochem-tools/cellcycle/internal/steps"
	"github.com/electrochem-tools/cellcycle/internal/store"
	"github.com/electrochem-tools/cellcycle/internal/summary"
	"github.com/electrochem-tools/cellcycle/internal/types"
	"github.com/electrochem-tools/cellcycle/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "", "Path to configuration source (YAML file or SQLite database)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	instrument := flag.String("instrument", "", "Override the configured instrument loader (generic_csv, arbin_xlsx)")
	dataset := flag.String("dataset", "", "SQLite dataset file to save the session into")
	snapshot := flag.String("snapshot", "", "msgpack snapshot file to save the session into")
	summaryCSV := flag.String("export-summary", "", "CSV file to export the summary table into")
	continueCycle := flag.Bool("merge-continue", false, "Treat each merged file's first cycle as a continuation of the previous file's last cycle")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cellcycle %s\n", version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if flag.NArg() == 0 {
		log.Errorf("No input files given. Usage: cellcycle [flags] file [file...]")
		os.Exit(1)
	}

	cfg, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if *instrument != "" {
		cfg.Instrument = *instrument
	}

	if err := run(cfg, flag.Args(), *dataset, *snapshot, *summaryCSV, *continueCycle); err != nil {
		log.Errorf("Analysis failed: %v", err)
		os.Exit(1)
	}
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	if cfgFile == "" {
		return config.Defaults(), nil
	}
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	return provider.LoadConfig()
}

func run(cfg *config.ConfigData, files []string, dataset, snapshot, summaryCSV string, continueCycle bool) error {
	logger := log.GetSugaredLogger()

	loader, err := loaders.New(cfg.Instrument, logger)
	if err != nil {
		return err
	}

	raw, err := loader.Load(files[0])
	if err != nil {
		return err
	}
	for _, f := range files[1:] {
		next, err := loader.Load(f)
		if err != nil {
			return err
		}
		raw.Append(next, types.MergeOptions{ContinueCycle: continueCycle})
	}
	if cfg.CellName != "" {
		raw.CellName = cfg.CellName
	}

	stepTable, err := steps.NewBuilder(cfg.RawLimits, cfg.StepSpecs, logger).Process(raw)
	if err != nil {
		return err
	}
	summaryTable, err := summary.NewAggregator(cfg.Normalization, logger).Process(stepTable, raw)
	if err != nil {
		return err
	}

	log.Infof("Processed %d samples into %d steps over %d cycles",
		raw.Len(), len(stepTable.Records), len(summaryTable.Records))

	if dataset != "" {
		st, err := store.Open(dataset, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveSession(raw, stepTable, summaryTable); err != nil {
			return err
		}
		log.Infof("Session saved to %s", dataset)
	}

	if snapshot != "" {
		if err := store.WriteSnapshot(snapshot, raw, stepTable, summaryTable); err != nil {
			return err
		}
		log.Infof("Snapshot written to %s", snapshot)
	}

	if summaryCSV != "" {
		if err := exportSummaryCSV(summaryCSV, summaryTable); err != nil {
			return err
		}
		log.Infof("Summary exported to %s", summaryCSV)
	}

	return nil
}

// exportSummaryCSV writes the headline summary columns for spreadsheet use.
func exportSummaryCSV(path string, table *types.SummaryTable) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"cycle_index", "charge_capacity", "discharge_capacity",
		"coulombic_efficiency", "cumulated_charge_capacity",
		"cumulated_discharge_capacity", "charge_capacity_loss",
		"discharge_capacity_loss", "ocv_first_min", "ocv_first_max",
		"charge_c_rate", "discharge_c_rate",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range table.Records {
		row := []string{
			strconv.Itoa(r.CycleIndex),
			fmtF(r.ChargeCapacity),
			fmtF(r.DischargeCapacity),
			fmtF(r.CoulombicEfficiency),
			fmtF(r.CumulatedChargeCapacity),
			fmtF(r.CumulatedDischargeCapacity),
			fmtF(r.ChargeCapacityLoss),
			fmtF(r.DischargeCapacityLoss),
			fmtF(r.OCVFirstMin),
			fmtF(r.OCVFirstMax),
			fmtF(r.ChargeCRate),
			fmtF(r.DischargeCRate),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func fmtF(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
