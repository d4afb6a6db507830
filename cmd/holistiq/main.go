package main

import "github.com/Strangemortal/Holistiq/internal/cli"

func main() {
	cli.Execute()
}
