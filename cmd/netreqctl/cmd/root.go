package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/netreq"
)

var (
	output       string
	connections  int
	timeout      time.Duration
	userAgent    string
	overwrite    bool
	headerArgs   []string
	showProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "netreqctl",
	Short: "netreqctl drives the netreq library from the command line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawURL := args[0]
		kind := netreq.Get
		if output != "" {
			if connections > 1 {
				kind = netreq.MTDownload
			} else {
				kind = netreq.Download
			}
		}
		ctx := netreq.NewContext(kind, rawURL)
		ctx.Behavior.ShowProgress = showProgress
		ctx.Behavior.TransferTimeout = timeout
		for k, v := range parseHeaderArgs(headerArgs) {
			ctx.Headers.Set(k, v)
		}
		if userAgent != "" {
			ctx.Headers.Set("User-Agent", userAgent)
		}
		if output != "" {
			dir := output
			name := ""
			if !isDir(output) {
				dir = dirOf(output)
				name = baseOf(output)
			}
			ctx.DownloadConfig = &netreq.DownloadConfig{
				SaveDir:      dir,
				SaveFileName: name,
				Overwrite:    overwrite,
				ThreadCount:  connections,
			}
		}

		mgr := netreq.GetManager()
		_, reply, err := mgr.Submit(ctx, 0)
		if err != nil {
			return err
		}

		renderer := newProgressRenderer(rawURL)
		for {
			select {
			case res := <-reply.Finished():
				renderer.finish(res)
				if !res.Success {
					return fmt.Errorf("request failed: %s", res.ErrorMessage)
				}
				return nil
			case p := <-reply.DownloadProgress():
				renderer.update(p)
			case p := <-reply.UploadProgress():
				renderer.update(p)
			}
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Save destination (file or directory); omit for an in-memory GET")
	rootCmd.Flags().IntVarP(&connections, "connections", "c", 1, "Segment count for downloads; >1 switches to a multi-segment download")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "Transfer timeout (e.g. 5s, 2m)")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", "", "Override the default User-Agent")
	rootCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing destination instead of numbering a new one")
	rootCmd.Flags().StringArrayVarP(&headerArgs, "header", "H", nil, "Custom header 'Key: Value'; repeatable")
	rootCmd.Flags().BoolVar(&showProgress, "progress", true, "Render progress while the transfer runs")
	rootCmd.AddCommand(newBatchCmd())
}

func parseHeaderArgs(args []string) map[string]string {
	out := make(map[string]string, len(args))
	for _, a := range args {
		parts := strings.SplitN(a, ":", 2)
		if len(parts) != 2 {
			continue
		}
		out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return out
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func dirOf(path string) string {
	if idx := strings.LastIndexByte(path, os.PathSeparator); idx >= 0 {
		return path[:idx]
	}
	return "."
}

func baseOf(path string) string {
	if idx := strings.LastIndexByte(path, os.PathSeparator); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
