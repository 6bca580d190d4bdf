package cmd

import (
	"fmt"

	"playpod/storage"

	"github.com/spf13/cobra"
)

var minioStatsOnly bool

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "查看歌单封面存储",
	Long:  `列出 MinIO 存储桶中的歌单封面，并输出数量和总大小。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewCoverStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}

		objects, stats, err := store.ListCovers(cmd.Context())
		if err != nil {
			return err
		}

		if !minioStatsOnly {
			for _, obj := range objects {
				fmt.Printf("%-60s %10s  %s\n", obj.Key, storage.FormatSize(obj.Size), obj.LastModified.Format("2006-01-02 15:04:05"))
			}
		}

		fmt.Printf("\n封面数量: %d\n", stats.TotalObjects)
		fmt.Printf("总大小: %s\n", storage.FormatSize(stats.TotalSize))
		if stats.TotalObjects > 0 {
			fmt.Printf("最后修改: %s\n", stats.LastModified.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
	minioCmd.Flags().BoolVarP(&minioStatsOnly, "stats", "s", false, "只显示统计信息")
}
