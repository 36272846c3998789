package main

import (
	"log"
)

// Build infos injected at compile time.
var (
	GitCommit string
	GitTag    string
	BuildTime string
)

// @title Students & Library API
// @version 1.0
// @description REST API to manage students records and the library books lending workflow.
// @contact.name API Support
// @contact.email jenidevops@gmail.com
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatal("application failed to initialized: ", err)
	}
	err = app.Run()
	if err != nil {
		log.Fatal("application exited. check logs for more details.", err)
	}
}
