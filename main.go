package main

import "github.com/Tiliavir/worktime/cmd"

func main() {
	cmd.Execute()
}
