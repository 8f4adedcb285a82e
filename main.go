package main

import "github.com/crystaldolphin/tomekeeper/cmd"

func main() {
	cmd.Execute()
}
