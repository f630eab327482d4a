// Command catalogctl inspects a catalog export offline: resolved prices,
// stock and recommendations, plus import into the Postgres mirror.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
