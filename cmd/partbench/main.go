// Command partbench benchmarks and explores persistent adaptive radix trees.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
