// Package main provides the entry point for tspred.
// tspred is a temporal-stream branch correction predictor built on Akita.
//
// For the full CLI, use: go run ./cmd/tspred
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("tspred - Temporal-Stream Branch Predictor")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: tspred [options] <trace>...")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to predictor configuration (JSON or YAML)")
	fmt.Println("  -base      Base predictor (bimode, bimodal)")
	fmt.Println("  -window    Branches in flight before resolution")
	fmt.Println("  -v         Log every predictor event")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tspred' for the full CLI.")
	fmt.Println("Run 'go run ./cmd/benchmark' for the synthetic workloads.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tspred' instead.")
	}
}
