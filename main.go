package main

import "github.com/skelland/tripline/cmd"

func main() {
	cmd.Execute()
}
