package main

import (
	"github.com/ilosync/ilosync/cmd"
)

func main() {
	cmd.Execute()
}
