package main

import "fmt"

// set with -ldflags "-X main.gitSHA1=..."
var (
	gitSHA1   string = "unknown"
	gitDirty  string = "unknown"
	buildDate string = "unknown"
)

func versionString() string {
	return fmt.Sprintf("go-mock-httpd git:%s dirty:%s built:%s", gitSHA1, gitDirty, buildDate)
}
