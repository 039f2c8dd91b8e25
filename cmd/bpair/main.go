package main

import "github.com/mcoot/badminton-pairing/internal/cli"

func main() {
	cli.Execute()
}
