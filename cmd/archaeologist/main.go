package main

import (
	"github.com/idiya2016/cloud-resource-archaeologist/cmd/archaeologist/commands"
)

func main() {
	commands.Execute()
}
