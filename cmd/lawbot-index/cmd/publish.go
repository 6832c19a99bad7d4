package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lawbot/internal/indexer"
	"github.com/kailas-cloud/lawbot/internal/snapshot"
)

func newPublishCmd(rt *runtime) *cobra.Command {
	var (
		dir    string
		bucket string
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload built indexes to S3",
		Long: `Upload index_bm25/ and index_vector/ from --dir to s3://<bucket>/<prefix>/.
Bucket, prefix and credentials default to index.snapshot in the config,
so servers configured with the same snapshot section fetch what was published.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sc := rt.cfg.Index.Snapshot
			if bucket != "" {
				sc.Bucket = bucket
			}
			if cmd.Flags().Changed("prefix") {
				sc.Prefix = prefix
			}
			if !sc.Enabled() {
				return errors.New("no bucket: pass --bucket or set index.snapshot.bucket")
			}
			if dir == "" {
				dir = filepath.Dir(rt.cfg.Index.LexicalPath)
			}

			client, err := snapshot.NewClient(ctx, snapshot.ClientConfig{
				Region:          sc.Region,
				Endpoint:        sc.Endpoint,
				AccessKeyID:     sc.AccessKeyID,
				SecretAccessKey: sc.SecretAccessKey,
				UsePathStyle:    sc.UsePathStyle,
			})
			if err != nil {
				return err
			}
			syncer := snapshot.New(client, sc.Bucket, sc.Prefix, rt.logger)

			for _, p := range []struct{ name, local string }{
				{snapshot.LexicalName, filepath.Join(dir, indexer.LexicalDir)},
				{snapshot.VectorName, filepath.Join(dir, indexer.VectorDir)},
			} {
				n, err := syncer.Publish(ctx, p.name, p.local)
				if err != nil {
					return fmt.Errorf("publish %s: %w", p.name, err)
				}
				rt.logger.Info("Published index",
					zap.String("name", p.name),
					zap.String("bucket", sc.Bucket),
					zap.String("prefix", sc.Prefix),
					zap.Int("files", n),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory holding the built indexes (default: parent of index.lexical_path)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Target bucket (default: index.snapshot.bucket)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix (default: index.snapshot.prefix)")

	return cmd
}
