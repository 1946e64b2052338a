// Command resin is a console for the raycast engine. With no
// arguments it builds a demo scene and benchmarks queries against it;
// with -script or -eval it runs a Lisp console program.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gorgonia.org/tensor"

	"github.com/chazu/resin/pkg/meshgen"
	"github.com/chazu/resin/pkg/raycast"
	"github.com/chazu/resin/pkg/script"
)

func main() {
	var (
		scriptPath = flag.String("script", "", "run a console script from a file")
		evalSrc    = flag.String("eval", "", "run console source given inline")
		verbose    = flag.Bool("v", false, "enable engine debug logging")
		cells      = flag.Int("cells", 64, "marching cubes resolution for the demo sphere")
		rays       = flag.Int("rays", 200000, "number of rays in the benchmark")
		seed       = flag.Int64("seed", 1, "benchmark rng seed")
	)
	flag.Parse()

	if *verbose {
		raycast.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	switch {
	case *scriptPath != "":
		src, err := os.ReadFile(*scriptPath)
		if err != nil {
			log.Fatalf("read script: %v", err)
		}
		if !runScript(string(src)) {
			os.Exit(1)
		}
	case *evalSrc != "":
		if !runScript(*evalSrc) {
			os.Exit(1)
		}
	default:
		if err := runDemo(*cells, *rays, *seed); err != nil {
			log.Fatalf("demo: %v", err)
		}
	}
}

// runScript evaluates console source and prints the outcome. It
// returns false when the script failed.
func runScript(source string) bool {
	res, evalErrs, err := script.NewInterp().Run(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return false
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return false
	}

	if res.Value != "" {
		fmt.Println(res.Value)
	}
	fmt.Printf("scene: %d surface(s)\n", res.Scene.SurfaceCount())
	return true
}

// buildDemoScene assembles a sphere tessellated at the given
// resolution next to an exact cuboid.
func buildDemoScene(cells int) (*raycast.Scene, error) {
	s := raycast.NewScene()

	sphere, err := meshgen.Sphere(1, cells)
	if err != nil {
		return nil, err
	}
	if _, err := s.AddTriangles(sphere.Vertices, sphere.Triangles); err != nil {
		return nil, err
	}

	box := meshgen.Cuboid(1, 1, 1).Translate(2.5, 0, 0)
	if _, err := s.AddTriangles(box.Vertices, box.Triangles); err != nil {
		return nil, err
	}

	return s, nil
}

// randomRays fills a (n, 6) tensor with rays originating in a box
// around the demo scene, aimed in random directions.
func randomRays(n int, rng *rand.Rand) *tensor.Dense {
	rows := make([]float32, n*6)
	for i := 0; i < n; i++ {
		rows[i*6+0] = rng.Float32()*8 - 3
		rows[i*6+1] = rng.Float32()*6 - 3
		rows[i*6+2] = rng.Float32()*6 - 3
		rows[i*6+3] = rng.Float32()*2 - 1
		rows[i*6+4] = rng.Float32()*2 - 1
		rows[i*6+5] = rng.Float32()*2 - 1
	}
	return tensor.New(tensor.WithShape(n, 6), tensor.WithBacking(rows))
}

func runDemo(cells, rays int, seed int64) error {
	fmt.Printf("building demo scene (sphere at origin, cuboid at x=2.5, %d cells)\n", cells)
	s, err := buildDemoScene(cells)
	if err != nil {
		return err
	}

	// Spot queries around the scene.
	points := tensor.New(tensor.WithShape(4, 3), tensor.WithBacking([]float32{
		0, 0, 0,
		2.5, 0, 0,
		1.6, 0, 0,
		0, 3, 0,
	}))
	sd, err := s.ComputeSignedDistance(points)
	if err != nil {
		return err
	}
	occ, err := s.ComputeOccupancy(points)
	if err != nil {
		return err
	}
	sdv := sd.Data().([]float32)
	occv := occ.Data().([]float32)
	labels := []string{"sphere center", "cuboid center", "between shapes", "above scene"}
	for i, l := range labels {
		fmt.Printf("  %-14s signed distance %+.3f  occupancy %.0f\n", l, sdv[i], occv[i])
	}

	hits, err := s.CastRays(tensor.New(tensor.WithShape(1, 6),
		tensor.WithBacking([]float32{-3, 0, 0, 1, 0, 0})))
	if err != nil {
		return err
	}
	fmt.Printf("  ray from (-3 0 0) along +x hits at t=%.3f (surface %d)\n",
		hits.THit.Data().([]float32)[0],
		hits.GeometryIDs.Data().([]uint32)[0])

	// Benchmark.
	const batch = 8192
	rng := rand.New(rand.NewSource(seed))
	var castMS []float64
	done := 0
	start := time.Now()
	for done < rays {
		n := min(batch, rays-done)
		t0 := time.Now()
		if _, err := s.CastRays(randomRays(n, rng)); err != nil {
			return err
		}
		castMS = append(castMS, float64(time.Since(t0).Microseconds())/1000)
		done += n
	}
	elapsed := time.Since(start)

	fmt.Printf("\ncast %d rays in %v (%.0f rays/s)\n",
		rays, elapsed.Round(time.Millisecond),
		float64(rays)/elapsed.Seconds())
	mean, p50, p99 := latencyStats(castMS)
	fmt.Printf("  batch latency ms: mean %.2f  p50 %.2f  p99 %.2f\n", mean, p50, p99)

	return nil
}

// latencyStats summarizes per-batch latencies in milliseconds.
func latencyStats(ms []float64) (mean, p50, p99 float64) {
	sorted := append([]float64(nil), ms...)
	sort.Float64s(sorted)
	mean = stat.Mean(sorted, nil)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	return mean, p50, p99
}
