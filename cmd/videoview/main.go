// Command videoview runs embedded video view sessions against the simulated
// media backend.
package main

import "github.com/go-drift/videoview/cmd/videoview/internal/cli"

func main() {
	cli.Execute()
}
