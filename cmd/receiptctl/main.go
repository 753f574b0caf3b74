package main

import (
	"os"

	"github.com/thereceipt/receipt-interpreter/cmd/receiptctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
