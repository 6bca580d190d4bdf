package cmd

import (
	"fmt"

	"playpod/server"

	"github.com/spf13/cobra"
)

var radioUser string

var radioCmd = &cobra.Command{
	Use:   "radio",
	Short: "播放队列的后台任务",
	Long:  `手动执行电台补充和队列清理，与服务器内的后台任务使用同一套逻辑。`,
}

var radioSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "根据最近播放为用户补充队列",
	RunE: func(cmd *cobra.Command, args []string) error {
		if radioUser == "" {
			return fmt.Errorf("--user is required")
		}
		app, err := server.NewApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		result, err := app.Service.SeedQueue(cmd.Context(), radioUser)
		if err != nil {
			return err
		}
		if result.Skipped {
			fmt.Printf("队列已有 %d 首曲目，无需补充\n", result.Total)
			return nil
		}
		fmt.Printf("新增 %d 首，队列共 %d 首\n", len(result.Added), result.Total)
		return nil
	},
}

var radioCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "清理已播放且过期的队列曲目",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := server.NewApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		if radioUser != "" {
			removed, err := app.Service.CleanupQueue(cmd.Context(), radioUser)
			if err != nil {
				return err
			}
			fmt.Printf("已清理 %d 首曲目\n", removed)
			return nil
		}
		removed, err := app.Service.CleanupQueues(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("全部队列清理完成，共清理 %d 首曲目\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(radioCmd)
	radioCmd.AddCommand(radioSeedCmd, radioCleanupCmd)
	radioCmd.PersistentFlags().StringVarP(&radioUser, "user", "u", "", "用户ID")
}
