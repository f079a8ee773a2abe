package main

import "taxifare/cmd"

func main() {
	cmd.Execute()
}
