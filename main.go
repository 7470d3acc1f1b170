package main

import "github.com/porsk/github-stats/cmd"

func main() {
	cmd.Execute()
}
