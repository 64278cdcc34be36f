package main

import "github.com/frahmantamala/cash-advance-management/cmd"

func main() {
	cmd.Execute()
}
