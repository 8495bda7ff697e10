package main

import (
	"github.com/joho/godotenv"

	"dhanix/internal/app/server"
)

func main() {
	_ = godotenv.Load()
	server.Run()
}
