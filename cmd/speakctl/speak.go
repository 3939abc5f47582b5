package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/odiadev/naijatts/internal/speech/backends/restutil"
)

func serverURL(v *viper.Viper, path string) string {
	return strings.TrimRight(v.GetString("server"), "/") + path
}

func newSpeakCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "speak [text]",
		Short: "Request speech from a speaker service and save it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			headers := map[string]string{}
			if key := v.GetString("api_key"); key != "" {
				headers["X-API-Key"] = key
			}
			body := map[string]string{
				"text":  strings.Join(args, " "),
				"voice": v.GetString("voice"),
			}

			client := &http.Client{Timeout: v.GetDuration("timeout")}
			data, contentType, err := restutil.DoRaw(cmd.Context(), client, http.MethodPost,
				serverURL(v, "/speak"), headers, body)
			if err != nil {
				return fmt.Errorf("speak: %w", err)
			}

			format := "mp3"
			if strings.Contains(contentType, "wav") {
				format = "wav"
			}
			out := outputPath(v, format)
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", out, humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
}

type voiceList struct {
	Voices []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Language string `json:"language"`
	} `json:"voices"`
	Total int `json:"total"`
}

func newVoicesCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List the voices a speaker service offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var list voiceList
			client := &http.Client{Timeout: v.GetDuration("timeout")}
			if err := restutil.DoJSON(cmd.Context(), client, http.MethodGet,
				serverURL(v, "/voices"), nil, nil, &list); err != nil {
				return fmt.Errorf("list voices: %w", err)
			}
			for _, voice := range list.Voices {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-28s %s\n", voice.ID, voice.Name, voice.Language)
			}
			return nil
		},
	}
}
