package main

import "github.com/naka-gawa/profile-activity/cmd"

func main() {
	cmd.Execute()
}
