package main

import (
	"github.com/capscope/capscope/cmd"
)

func main() {
	cmd.Execute()
}
