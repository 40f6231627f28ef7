package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const subcommandsHeader = "\n\nSubcommands:\n"

// walkCommands visits every command in the tree depth-first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// enrichParentLong lists the available subcommands of network and config
// style parents at the end of their Long text. The root command has its own
// grouped listing and is left alone; running it twice changes nothing.
func enrichParentLong(cmd *cobra.Command) {
	if !cmd.HasSubCommands() || !cmd.HasParent() || strings.Contains(cmd.Long, subcommandsHeader) {
		return
	}

	subs := make([]*cobra.Command, 0, len(cmd.Commands()))
	width := 0
	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		subs = append(subs, sub)
		width = max(width, len(sub.Name()))
	}
	if len(subs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(cmd.Long)
	sb.WriteString(subcommandsHeader)
	for _, sub := range subs {
		fmt.Fprintf(&sb, "  %-*s  %s\n", width, sub.Name(), sub.Short)
	}
	cmd.Long = sb.String()
}
