// nodeforge applies batch mutation requests to node graphs stored in asset
// fixture files and inspects the node kinds its factories support.
package main

import "os"

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
