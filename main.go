package main

import "microbench/cmd"

func main() {
	cmd.Execute()
}
