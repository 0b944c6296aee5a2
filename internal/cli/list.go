package cli

import (
	"fmt"
	"time"

	"github.com/me/gotr/internal/discovery"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var (
		pattern     string
		interpreter string
	)

	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "List discovered test cases and their ordering constraints",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}

			disc := discovery.New(discovery.Config{
				Root:        root,
				Pattern:     pattern,
				Interpreter: interpreter,
			}, logger)
			cases, err := disc.Discover()
			if err != nil {
				return err
			}

			if len(cases) == 0 {
				fmt.Println("No test cases found.")
				return nil
			}

			fmt.Printf("%-40s  %-40s  %s\n", "ID", "DEPENDS ON", "DELAY")
			fmt.Printf("%-40s  %-40s  %s\n", "----", "----------", "-----")
			for _, tc := range cases {
				delay := "-"
				if tc.DelayMinutes > 0 {
					delay = (time.Duration(tc.DelayMinutes) * time.Minute).String()
				}
				dependsOn := tc.DependsOn
				if dependsOn == "" {
					dependsOn = "-"
				}
				fmt.Printf("%-40s  %-40s  %s\n", tc.ID, dependsOn, delay)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "*_test.sh", "Test file glob")
	cmd.Flags().StringVar(&interpreter, "interpreter", "/bin/sh", "Command used to run a test file")

	return cmd
}
