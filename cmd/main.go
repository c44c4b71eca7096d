package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/cmd/service"
)

func main() {
	root := &cobra.Command{
		Use:   "kb-support-agent",
		Short: "Support chat backend for the iGOT Karmayogi platform",
	}
	root.AddCommand(service.NewCommand())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
