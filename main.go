package main

import "github.com/crossvenue/arbengine/cmd"

func main() {
	cmd.Execute()
}
