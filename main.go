package main

import "github.com/rdu/measures/cmd"

func main() {
	cmd.Execute()
}
