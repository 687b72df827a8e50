// Command trackpro is a terminal client for the TrackPro API.
package main

import "github.com/chimerakang/trackpro-go/cmd/trackpro/commands"

func main() {
	commands.Execute()
}
