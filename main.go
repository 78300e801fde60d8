package main

import "github.com/kiesman99/mapimage/cmd"

func main() {
	cmd.Execute()
}
