package main

import (
	"os"

	tutorcmder "github.com/tutorloop/tutorstream/cmd/tutor"
)

func main() {
	cmd := tutorcmder.NewTutorCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
