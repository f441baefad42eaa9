package main

import "github.com/scythe504/sketchguess-backend/cmd"

func main() {
	cmd.Execute()
}
