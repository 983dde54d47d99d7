package main

import "github.com/tanq16/partget/cmd"

func main() {
	cmd.Execute()
}
