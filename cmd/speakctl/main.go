// Command speakctl renders fallback audio offline and talks to a running
// speaker service.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flags are bound to v, which also reads
// SPEAKCTL_* environment variables (SPEAKCTL_SERVER, SPEAKCTL_API_KEY, ...).
func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "speakctl",
		Short:         "Nigerian-accent text to speech client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	v.SetEnvPrefix("speakctl")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.PersistentFlags().String("voice", "nigerian-female", "voice id or alias")
	root.PersistentFlags().StringP("out", "o", "", "output file (default speech.<format>)")
	root.PersistentFlags().String("server", "http://localhost:8080", "speaker service base URL")
	root.PersistentFlags().String("api-key", "", "API key sent as X-API-Key")
	root.PersistentFlags().Duration("timeout", 30*time.Second, "request timeout")
	for key, flag := range map[string]string{
		"voice":   "voice",
		"out":     "out",
		"server":  "server",
		"api_key": "api-key",
		"timeout": "timeout",
	} {
		_ = v.BindPFlag(key, root.PersistentFlags().Lookup(flag))
	}

	root.AddCommand(newSynthCmd(v), newSpeakCmd(v), newVoicesCmd(v))
	return root
}

func outputPath(v *viper.Viper, format string) string {
	if out := v.GetString("out"); out != "" {
		return out
	}
	return "speech." + format
}
