package main

import "github.com/17hemanthkumar/pm/cmd"

func main() {
	cmd.Execute()
}
