package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tanq16/netreq"
	"gopkg.in/yaml.v3"
)

// BatchEntry is one download job in a batch YAML file.
type BatchEntry struct {
	Output string `yaml:"output,omitempty"`
	Link   string `yaml:"link"`
}

// BatchFile is the top-level shape of a batch YAML document: a single
// "downloads" list, each entry a URL plus optional output path.
type BatchFile struct {
	Downloads []BatchEntry `yaml:"downloads"`
}

func newBatchCmd() *cobra.Command {
	var batchConnections int
	var abortOnFail bool

	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Run every download listed in a YAML batch file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading batch file: %w", err)
			}
			var batch BatchFile
			if err := yaml.Unmarshal(data, &batch); err != nil {
				return fmt.Errorf("parsing batch file: %w", err)
			}
			if len(batch.Downloads) == 0 {
				return fmt.Errorf("batch file %s has no downloads entries", args[0])
			}

			ctxs := make([]*netreq.Context, 0, len(batch.Downloads))
			for _, entry := range batch.Downloads {
				if entry.Link == "" {
					fmt.Fprintf(os.Stderr, "warning: skipping entry with empty link\n")
					continue
				}
				ctx := netreq.NewContext(netreq.MTDownload, entry.Link)
				dir, name := filepath.Split(entry.Output)
				if dir == "" {
					dir = "."
				}
				ctx.DownloadConfig = &netreq.DownloadConfig{
					SaveDir:      dir,
					SaveFileName: name,
					ThreadCount:  batchConnections,
				}
				ctxs = append(ctxs, ctx)
			}
			if len(ctxs) == 0 {
				return fmt.Errorf("no valid jobs in %s", args[0])
			}

			mgr := netreq.GetManager()
			_, reply, err := mgr.SubmitBatch(ctxs, 0, abortOnFail, true)
			if err != nil {
				return err
			}

			renderer := newProgressRenderer(fmt.Sprintf("batch (%d jobs)", len(ctxs)))
			for {
				select {
				case res := <-reply.Finished():
					renderer.finish(res)
					if !res.Success {
						return fmt.Errorf("batch failed: %s", res.ErrorMessage)
					}
					return nil
				case p := <-reply.BatchDownloadProgress():
					renderer.update(p)
				}
			}
		},
	}
	cmd.Flags().IntVarP(&batchConnections, "connections", "c", 4, "Segment count per download")
	cmd.Flags().BoolVar(&abortOnFail, "abort-on-fail", false, "Cancel the remaining batch members as soon as one fails")
	return cmd
}
