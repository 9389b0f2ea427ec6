package main

import "voicemix/cmd"

func main() {
	cmd.Execute()
}
