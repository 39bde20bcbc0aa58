package main

import "aitoolshub/internal/app"

// @title           AI Tools Hub API
// @version         1.0
// @description     Community directory of AI tools with email-based two-factor authentication.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @BasePath  /
func main() {
	app.Run()
}
