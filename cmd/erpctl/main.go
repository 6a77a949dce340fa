package main

import "erp/internal/cli"

func main() {
	cli.Execute()
}
