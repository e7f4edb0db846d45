package main

import (
	"github.com/joho/godotenv"

	"github.com/rmayhew/ddq/cmd"
)

func main() {
	// A .env in the working directory fills in missing DD_* variables;
	// real environment values always win.
	_ = godotenv.Load()
	cmd.Execute()
}
