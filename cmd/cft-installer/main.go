package main

import "github.com/oshokin/cft-installer/cmd/cft-installer/cmd"

func main() {
	cmd.Execute()
}
