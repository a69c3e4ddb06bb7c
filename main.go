package main

import "github.com/iksnae/langlog/cmd"

func main() {
	cmd.Execute()
}
