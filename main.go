package main

import "github.com/chriserin/retrygen/cmd"

func main() {
	cmd.Execute()
}
