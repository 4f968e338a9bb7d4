package main

import "github.com/tanq16/dlspeed/cmd"

func main() {
	cmd.Execute()
}
