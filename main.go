package main

import "github.com/kebairia/fsbackup/cmd"

func main() {
	cmd.Execute()
}
