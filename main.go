package main

import "github.com/mame82/bitdoflash/cmd"

func main() {
	cmd.Execute()
}
