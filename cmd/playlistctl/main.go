// Command playlistctl manages the playlist catalog from the shell, against
// the same backend the server is configured with.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	app := newApp(NewRunner(os.Stdout))

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "playlistctl: %v\n", err)
		os.Exit(1)
	}
}
