package main

import (
	"os"

	"github.com/goliatone/go-crm-connect/internal/crmctl"
)

func main() {
	os.Exit(crmctl.Main(os.Args))
}
