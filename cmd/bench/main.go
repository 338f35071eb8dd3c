package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fanatics-live/persistent-queue/internal/benchrunner"
	"github.com/fanatics-live/persistent-queue/pkg/backend"
	"github.com/fanatics-live/persistent-queue/pkg/boundedqueue"
	"github.com/fanatics-live/persistent-queue/pkg/dropping"
	"github.com/fanatics-live/persistent-queue/pkg/fsbackend"
)

// BenchmarkResult holds results for one fill/drain run.
type BenchmarkResult struct {
	Backend         string  `json:"backend"`
	PayloadSize     int     `json:"payload_size"`
	MemoryLimit     int     `json:"memory_limit"`
	Offered         int64   `json:"offered"`
	Accepted        int64   `json:"accepted"`
	Drained         int64   `json:"drained"`
	FillElapsed     string  `json:"fill_elapsed"`
	DrainElapsed    string  `json:"drain_elapsed"`
	FillThroughput  float64 `json:"fill_throughput_entries_sec"`
	DrainThroughput float64 `json:"drain_throughput_entries_sec"`
	Timestamp       int64   `json:"timestamp"`
	GoVersion       string  `json:"go_version"`
}

// SystemInfo holds system information.
type SystemInfo struct {
	NumCPU      int     `json:"num_cpu"`
	CPUModel    string  `json:"cpu_model,omitempty"`
	CPUSpeedMHz float64 `json:"cpu_speed_mhz,omitempty"`
	GOARCH      string  `json:"go_arch"`
	TotalMemory uint64  `json:"total_memory_bytes,omitempty"`
}

// FullReport represents a complete bench session.
type FullReport struct {
	SessionTime string            `json:"session_time"`
	SystemInfo  SystemInfo        `json:"system_info"`
	Benchmarks  []BenchmarkResult `json:"benchmarks"`
}

// backendImpl describes one overflow backend under test.
type backendImpl struct {
	name        string
	description string
	newBackend  func(cfg benchrunner.Config) (backend.Backend[[]byte], error)
}

func getBackends(workDir string) []backendImpl {
	return []backendImpl{
		{
			name:        "dropping",
			description: "Discards every overflow entry; pure capacity-bounded behavior.",
			newBackend: func(benchrunner.Config) (backend.Backend[[]byte], error) {
				return dropping.New[[]byte](), nil
			},
		},
		{
			name:        "filesystem",
			description: "Durable one-file-per-entry overflow store with a byte limit.",
			newBackend: func(cfg benchrunner.Config) (backend.Backend[[]byte], error) {
				dir, err := os.MkdirTemp(workDir, "bench-fs-*")
				if err != nil {
					return nil, err
				}
				return fsbackend.New(fsbackend.Options[[]byte]{
					Dir:      dir,
					MaxBytes: cfg.FSMaxBytes,
				})
			},
		},
	}
}

// outputMarkdownTable loads the JSON report and prints a Markdown summary of
// the last session.
func outputMarkdownTable(jsonFile string) error {
	data, err := os.ReadFile(jsonFile)
	if err != nil {
		return fmt.Errorf("read JSON file %q: %w", jsonFile, err)
	}
	var sessions []FullReport
	if err := json.Unmarshal(data, &sessions); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions found in %q", jsonFile)
	}

	last := sessions[len(sessions)-1]
	rows := append([]BenchmarkResult(nil), last.Benchmarks...)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].DrainThroughput > rows[j].DrainThroughput
	})

	fmt.Println("## Last Session Benchmark Summary")
	fmt.Println()
	fmt.Println("| Backend     | Payload (B) | Offered | Accepted | Fill (entries/s) | Drain (entries/s) |")
	fmt.Println("|-------------|-------------|---------|----------|------------------|-------------------|")
	for _, r := range rows {
		fmt.Printf("| %-11s | %11d | %7d | %8d | %16.0f | %17.0f |\n",
			r.Backend, r.PayloadSize, r.Offered, r.Accepted, r.FillThroughput, r.DrainThroughput)
	}
	return nil
}

func main() {
	configPath := flag.String("config", "", "Path to YAML bench config (defaults apply when empty)")
	jsonExport := flag.Bool("json", false, "Append results to the JSON report file")
	markdownTable := flag.Bool("markdown-table", false, "Output markdown table from the JSON report and exit")
	jsonFile := flag.String("jsonfile", "bench-results.json", "Path to JSON report file")
	flag.Parse()

	if *markdownTable {
		if err := outputMarkdownTable(*jsonFile); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return
	}

	cfg := benchrunner.DefaultConfig()
	if *configPath != "" {
		loaded, err := benchrunner.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	workDir, err := os.MkdirTemp("", "persistent-queue-bench-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating work directory:", err)
		os.Exit(1)
	}
	defer os.RemoveAll(workDir)

	impls := getBackends(workDir)
	totalRuns := len(impls) * len(cfg.PayloadSizes) * cfg.Iterations
	bar := progressbar.NewOptions(totalRuns,
		progressbar.OptionSetDescription("benchmarking"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var results []BenchmarkResult
	for _, impl := range impls {
		fmt.Printf("\n=============================\n")
		fmt.Printf("Backend: %s\n", impl.name)
		fmt.Printf("=============================\n")

		for _, payloadSize := range cfg.PayloadSizes {
			for iteration := 1; iteration <= cfg.Iterations; iteration++ {
				runtime.GC()

				be, err := impl.newBackend(cfg)
				if err != nil {
					fmt.Fprintln(os.Stderr, "Error building backend:", err)
					os.Exit(1)
				}
				q, err := boundedqueue.New[[]byte](cfg.MemoryLimit, be)
				if err != nil {
					fmt.Fprintln(os.Stderr, "Error building queue:", err)
					os.Exit(1)
				}

				res, err := benchrunner.Run(q, cfg.EntryCount, payloadSize)
				if err != nil {
					fmt.Fprintln(os.Stderr, "Error running bench:", err)
					os.Exit(1)
				}
				bar.Add(1)

				fmt.Printf("    %s payload=%dB iter=%d/%d => offered=%d, accepted=%d, fill=%.0f entries/s, drain=%.0f entries/s\n",
					impl.name, payloadSize, iteration, cfg.Iterations,
					res.Offered, res.Accepted, res.FillThroughput(), res.DrainThroughput())

				results = append(results, BenchmarkResult{
					Backend:         impl.name,
					PayloadSize:     payloadSize,
					MemoryLimit:     cfg.MemoryLimit,
					Offered:         res.Offered,
					Accepted:        res.Accepted,
					Drained:         res.Drained,
					FillElapsed:     res.FillElapsed.String(),
					DrainElapsed:    res.DrainElapsed.String(),
					FillThroughput:  res.FillThroughput(),
					DrainThroughput: res.DrainThroughput(),
					Timestamp:       time.Now().Unix(),
					GoVersion:       runtime.Version(),
				})
			}
		}
	}
	fmt.Fprintln(os.Stderr)

	if *jsonExport {
		report := FullReport{
			SessionTime: time.Now().Format(time.RFC3339),
			SystemInfo:  gatherSystemInfo(),
			Benchmarks:  results,
		}
		var previous []FullReport
		if data, err := os.ReadFile(*jsonFile); err == nil && len(data) > 0 {
			json.Unmarshal(data, &previous)
		}
		updated := append(previous, report)
		data, err := json.MarshalIndent(updated, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error marshalling JSON:", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*jsonFile, data, 0644); err != nil {
			fmt.Fprintln(os.Stderr, "Error writing JSON file:", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote results to %s\n", *jsonFile)
	}
}

// gatherSystemInfo collects basic CPU and memory details.
func gatherSystemInfo() SystemInfo {
	info := SystemInfo{
		NumCPU: runtime.NumCPU(),
		GOARCH: runtime.GOARCH,
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		info.CPUModel = infos[0].ModelName
		info.CPUSpeedMHz = infos[0].Mhz
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = vm.Total
	}
	return info
}
