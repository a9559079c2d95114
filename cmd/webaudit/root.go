package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webaudit",
		Short: "Website auditing tool for SEO, security, and content quality",
		Long: `webaudit crawls a website and audits it for SEO, security, content,
and user experience issues. Each audit produces category scores, a
prioritized list of findings, and remediation recommendations.

API keys are read from the environment (or a .env file):
  PAGESPEED_API_KEY  enables PageSpeed Insights performance data
  GEMINI_API_KEY     enables AI-generated recommendations`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
