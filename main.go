package main

import "github.com/deploymenttheory/go-simplefs/cmd"

func main() {
	cmd.Execute()
}
