package main

import "portfolio-photo-backend/cmd"

func main() {
	cmd.Run()
}
