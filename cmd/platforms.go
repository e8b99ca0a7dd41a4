package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"brandpost/internal/platform"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List supported platforms and their image and text limits",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(platformTable())
	},
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}

func platformTable() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Platform", "Aspect", "Size", "Max text").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, spec := range platform.All() {
		t.Row(
			spec.Name,
			spec.AspectRatio(),
			fmt.Sprintf("%dx%d", spec.Width, spec.Height),
			strconv.Itoa(spec.MaxTextLength),
		)
	}
	return t.Render()
}
