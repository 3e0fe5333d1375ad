// graphclip - copy, paste and duplicate selections of node-graph documents.
//
// graphclip snapshots a selection of a graph document onto a persistent
// clipboard and rebuilds it in another document, or duplicates it in place,
// remapping every identity and reference along the way.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/graphclip/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
