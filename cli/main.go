package main

import "github.com/zhaobenny/codextop/cli/cmd"

func main() {
	cmd.Execute()
}
