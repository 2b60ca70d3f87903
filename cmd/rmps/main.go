package main

import "github.com/jamesyinbaare/rmps-sub002/cmd/rmps/cmd"

func main() {
	cmd.Execute()
}
