// Command roundtrip publishes one record to a Kafka cluster and verifies
// that fresh consumer groups read it back intact.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
