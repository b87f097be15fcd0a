package main

import "github.com/notargets/spectralns/cmd"

func main() {
	cmd.Execute()
}
