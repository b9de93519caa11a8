package main

import "gigsos_backend/internal/app"

func main() {
	app.Run()
}
