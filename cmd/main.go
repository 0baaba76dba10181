package main

import "chamber_control/internal/cmd"

func main() {
	cmd.Execute()
}
