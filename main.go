package main

import "krakendca/cmd"

func main() {
	cmd.Execute()
}
