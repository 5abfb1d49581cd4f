package main

import "i18n-extractor/internal/cli"

func main() {
	cli.Execute()
}
