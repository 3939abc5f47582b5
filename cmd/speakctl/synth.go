package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/odiadev/naijatts/internal/speech/synth"
)

func newSynthCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth [text]",
		Short: "Render the fallback waveform to a WAV file without a server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("text required")
			}

			p := synth.Preset(v.GetString("preset"))
			p.Seed = v.GetUint32("seed")
			g := synth.New(p)
			data := g.WAV(text)

			out := outputPath(v, "wav")
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %.2fs)\n",
				out, humanize.Bytes(uint64(len(data))), g.Duration(len([]rune(text))))
			return nil
		},
	}
	cmd.Flags().String("preset", "extended", "synthesizer preset: extended or compact")
	cmd.Flags().Uint32("seed", 0, "noise seed")
	_ = v.BindPFlag("preset", cmd.Flags().Lookup("preset"))
	_ = v.BindPFlag("seed", cmd.Flags().Lookup("seed"))
	return cmd
}
