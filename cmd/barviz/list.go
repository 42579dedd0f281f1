package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guidoenr/barviz/internal/audio"
	"github.com/guidoenr/barviz/internal/config"
)

func newDevicesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Long: `Lists every input device with its selector label. Use the label with
--device, e.g. barviz --device "[3] Monitor of Built-in Audio".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, release, err := openBackend(opts)
			if err != nil {
				return err
			}
			defer release()

			devices, err := audio.ListDevices(backend)
			if err != nil {
				return fmt.Errorf("list devices: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n=== Audio Input Devices ===\n\n")
			var rows [][]any
			for _, dev := range devices {
				if dev.MaxInput == 0 {
					continue
				}
				markers := ""
				if dev.IsDefaultInput {
					markers = " (default)"
				}
				rows = append(rows, []any{dev.Label(), dev.HostAPI, markers, dev.MaxInput, dev.DefaultSampleHz})
			}
			printTable(out, "- %s [%s]%s\n    inputs:%d sample:%.0f Hz\n", rows)

			if dev, err := audio.Resolve(backend, "Default"); err == nil {
				fmt.Fprintf(out, "\nDefault selector resolves to: %s\n", dev.Label())
			}
			return nil
		},
	}
}

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List color themes, character sets and fonts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Themes:")
			var rows [][]any
			for _, name := range config.ThemeNames() {
				t, _ := config.LookupTheme(name)
				rows = append(rows, []any{name, hex(t.Start), hex(t.End)})
			}
			printTable(out, "  %-14s %s -> %s\n", rows)

			fmt.Fprintln(out, "\nCharacter sets:")
			rows = rows[:0]
			for _, name := range config.CharSetNames() {
				rows = append(rows, []any{name, config.CharSet(name)})
			}
			printTable(out, "  %-10s %s\n", rows)

			fmt.Fprintf(out, "\nFonts: %s\n", strings.Join(config.FontNames(), ", "))
			return nil
		},
	}
}

func hex(c config.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
