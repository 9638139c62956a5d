package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/bnema/banishd/internal/device"
	"github.com/bnema/banishd/internal/logger"
)

var (
	colorPrimary = lipgloss.Color("39")  // Bright blue
	colorInfo    = lipgloss.Color("86")  // Cyan
	colorText    = lipgloss.Color("252") // Light gray
	colorSubtle  = lipgloss.Color("241") // Medium gray
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the input devices banishd would listen on",
	Long: `Scan /dev/input, classify each event device as keyboard or pointer,
and print the result. Devices that are neither (power buttons, lid
switches) are skipped, exactly as the daemon skips them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.SetDebug(flagDebug)

		reg := device.NewRegistry(nil)
		defer reg.Close()
		reg.Scan(device.InputDir)

		sources := reg.Sources()
		if len(sources) == 0 {
			fmt.Println("No input devices found (check permissions?)")
			return nil
		}

		rows := [][]string{}
		for _, src := range sources {
			rows = append(rows, []string{src.Path, src.Name, src.Role.String()})
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorSubtle)).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == 0: // Header row
					return lipgloss.NewStyle().
						Foreground(colorPrimary).
						Bold(true).
						Padding(0, 1)
				case col == 2: // Role column
					return lipgloss.NewStyle().
						Foreground(colorInfo).
						Padding(0, 1)
				default:
					return lipgloss.NewStyle().
						Foreground(colorText).
						Padding(0, 1)
				}
			}).
			Headers("PATH", "NAME", "ROLE").
			Rows(rows...)

		fmt.Println(t.String())

		countStyle := lipgloss.NewStyle().Foreground(colorSubtle)
		fmt.Println(countStyle.Render(fmt.Sprintf("Total: %d device(s)", len(sources))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
