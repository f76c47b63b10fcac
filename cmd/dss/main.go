// Command dss scans the top ranked crypto pairs with the DSS Bressert
// oscillator on several timeframes.
//
// Usage:
//
//	dss scan [--format table|json]
//	dss serve [--scan-interval 15m]
package main

import (
	"os"

	"github.com/irfndi/dss-scanner/cmd/dss/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
