package main

import "github.com/lightit/patientreg/cmd"

func main() {
	cmd.Execute()
}
