package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// BenchmarkResult mirrors the bench binary's JSON schema.
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

// median returns the middle value of a sorted copy of vals.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func main() {
	jsonFile := flag.String("jsonfile", "bench-results.json", "Path to JSON file containing bench sessions")
	output := flag.String("out", "bench_graph.png", "Output graph image filename")
	phase := flag.String("phase", "drain", "Which phase to plot: fill or drain")
	flag.Parse()

	data, err := os.ReadFile(*jsonFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading JSON file: %v\n", err)
		os.Exit(1)
	}

	var sessions []FullReport
	if err := json.Unmarshal(data, &sessions); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshalling JSON: %v\n", err)
		os.Exit(1)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "No sessions found in JSON.")
		os.Exit(1)
	}

	// Use the last session and group throughput samples per backend and
	// payload size, taking the median across iterations.
	last := sessions[len(sessions)-1]
	samples := make(map[string]map[int][]float64)
	for _, b := range last.Benchmarks {
		if samples[b.Backend] == nil {
			samples[b.Backend] = make(map[int][]float64)
		}
		v := b.DrainThroughput
		if *phase == "fill" {
			v = b.FillThroughput
		}
		samples[b.Backend][b.PayloadSize] = append(samples[b.Backend][b.PayloadSize], v)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Bounded queue %s throughput (%s)", *phase, last.SessionTime)
	p.X.Label.Text = "Payload size (bytes)"
	p.Y.Label.Text = "Entries per second"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{}
	p.Y.Tick.Marker = plot.LogTicks{}
	p.Legend.Top = true

	backends := make([]string, 0, len(samples))
	for name := range samples {
		backends = append(backends, name)
	}
	sort.Strings(backends)

	var lineArgs []interface{}
	for _, name := range backends {
		sizes := make([]int, 0, len(samples[name]))
		for size := range samples[name] {
			sizes = append(sizes, size)
		}
		sort.Ints(sizes)

		pts := make(plotter.XYs, 0, len(sizes))
		for _, size := range sizes {
			pts = append(pts, plotter.XY{
				X: float64(size),
				Y: median(samples[name][size]),
			})
		}
		lineArgs = append(lineArgs, name, pts)
	}

	if err := plotutil.AddLinePoints(p, lineArgs...); err != nil {
		fmt.Fprintf(os.Stderr, "Error adding lines: %v\n", err)
		os.Exit(1)
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving graph: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote graph to %s\n", *output)
}
