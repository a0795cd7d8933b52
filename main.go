package main

import "github.com/philipparndt/goifc/cmd"

func main() {
	cmd.Execute()
}
