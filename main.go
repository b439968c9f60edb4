package main

import "github.com/nevet/basic-MCI-Recorder/cmd"

func main() {
	cmd.Execute()
}
