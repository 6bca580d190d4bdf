package cmd

import (
	"playpod/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 playpod 服务器",
	Long:  `启动 HTTP API 服务，同时运行电台补充任务和队列清理任务`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
