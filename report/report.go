// Package report renders the results for one input file as a plain text block.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/mtraver/sensor-stats/trend"
)

// Block is everything shown for a single file.
type Block struct {
	Name      string
	Stats     trend.Result
	Anomalies int

	// NoData is set when no values were retained, in which case Stats is unset.
	NoData bool

	Processing  time.Duration
	Calculation time.Duration
}

func (b Block) Total() time.Duration {
	return b.Processing + b.Calculation
}

// Write writes b to w followed by a blank line.
func Write(w io.Writer, b Block) error {
	var err error
	printf := func(format string, a ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, a...)
		}
	}

	printf("--- Results for %s ---\n", b.Name)
	if b.NoData {
		printf("No data\n")
	} else {
		printf("Mean: %.5f\n", b.Stats.Mean)
		printf("Variance: %.5f\n", b.Stats.Variance)
		printf("Standard Deviation: %.5f\n", b.Stats.StdDev)
		printf("Trend: %s\n", b.Stats.Trend)
	}
	printf("Anomalies detected: %d\n", b.Anomalies)
	printf("Processing time: %.5f seconds\n", b.Processing.Seconds())
	printf("Calculation time: %.5f seconds\n", b.Calculation.Seconds())
	printf("Total time: %.5f seconds\n\n", b.Total().Seconds())

	return err
}
