package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	runtime "github.com/aster-lang/aster/internal/runtime"
	"github.com/aster-lang/aster/internal/runtime/coop"
	"github.com/aster-lang/aster/internal/runtime/memsafe"
)

// aster-runtime: inspect and exercise the runtime safety layer.
// Flags:
//
//	-config  path to a JSON config file (optional).
//	-serve   keep running and serve the diagnostic endpoints.
//	-addr    diagnostic listen address (default 127.0.0.1:6160).
//	-demo    run a short workload before reporting health.
func main() {
	var (
		configPath string
		serve      bool
		addr       string
		demo       bool
	)
	flag.StringVar(&configPath, "config", "", "path to a JSON config file")
	flag.BoolVar(&serve, "serve", false, "keep running and serve diagnostic endpoints")
	flag.StringVar(&addr, "addr", "127.0.0.1:6160", "diagnostic listen address")
	flag.BoolVar(&demo, "demo", false, "run a short workload before reporting health")
	flag.Parse()

	var cfg runtime.Config
	if configPath != "" {
		loaded, err := runtime.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if serve && cfg.DebugAddr == "" {
		cfg.DebugAddr = addr
	}

	rt, err := runtime.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rt.Shutdown()

	if configPath != "" {
		cw, err := runtime.WatchConfig(configPath, rt)
		if err != nil {
			log.Printf("config watch disabled: %v", err)
		} else {
			defer cw.Close()
		}
	}

	if demo {
		runDemo(rt)
	}

	if serve {
		log.Printf("serving diagnostics on http://%s", rt.DebugAddr())
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Print("shutting down")
		return
	}

	report := rt.Health()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if !report.Healthy {
		os.Exit(2)
	}
}

// runDemo pushes a little work through each subsystem so the health
// report has something to show.
func runDemo(rt *runtime.Runtime) {
	handle, err := memsafe.Allocate[int64](rt.Memory(), 1024, "demo buffer")
	if err != nil {
		log.Printf("demo allocation failed: %v", err)
	} else {
		for i := 0; i < handle.Len(); i++ {
			_ = handle.Set(i, int64(i))
		}
		defer handle.Release()
	}

	futures := make([]*coop.Future, 0, 32)
	for i := 0; i < 32; i++ {
		i := i
		f, err := rt.Pool().Submit(func() (any, error) {
			time.Sleep(time.Millisecond)
			return i * i, nil
		})
		if err != nil {
			log.Printf("demo submit refused: %v", err)
			continue
		}
		futures = append(futures, f)
	}
	for _, f := range futures {
		_, _ = f.Result()
	}

	a := make([]float32, 4096)
	b := make([]float32, 4096)
	for i := range a {
		a[i] = float32(i)
		b[i] = float32(len(a) - i)
	}
	_ = rt.Monitor().DotProduct(a, b)

	rt.RequestCleanup()
}
