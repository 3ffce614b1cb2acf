// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"context"
	"os"

	"github.com/vulntor/hostprint/cmd/hostprint/commands"
	"github.com/vulntor/hostprint/cmd/hostprint/internal/format"
)

func main() {
	cmd := commands.NewCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// Commands print their own failure summary; usage errors land here.
		if !commands.Reported(err) {
			_ = format.New(os.Stdout, os.Stderr, format.ModeTable, false).PrintError(err)
		}
		os.Exit(commands.ExitCode(err))
	}
}
