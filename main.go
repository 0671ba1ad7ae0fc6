package main

import (
	"github.com/lhecker/tumblr-dl/cmd"
)

func main() {
	cmd.Execute()
}
