package main

import (
	"os"

	"github.com/mirakyc/onboarding/cmd/kycadmin/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
