package main

import "topmovies/cmd/cli/command"

func main() {
	command.Execute()
}
