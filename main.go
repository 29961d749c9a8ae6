package main

import (
	"github.com/foomo/filebackup/cmd"
)

func main() {
	cmd.Execute()
}
