package main

import "github.com/brainart/eeg-pipeline/cmd"

func main() {
	cmd.Execute()
}
