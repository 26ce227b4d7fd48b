package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the orchat version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("orchat %s\n", version)
		},
	}
}
