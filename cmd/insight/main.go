// Command insight is the entry point for the Insight semantic search engine
// over the Bahá'í Writings. It provides a CLI (via Cobra) for ingesting
// documents and searching the corpus, and an HTTP server with a web UI.
package main

import (
	"fmt"
	"os"

	"github.com/insight-search/insight-go/cmd/insight/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
