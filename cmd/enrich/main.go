package main

import "gptenrich/internal/cli"

func main() {
	cli.Execute()
}
