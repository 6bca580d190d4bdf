package main

import "playpod/cmd"

func main() {
	cmd.Execute()
}
