package cmd

import (
	"fmt"
	"time"

	"playpod/core/auth"

	"github.com/spf13/cobra"
)

var (
	tokenUser string
	tokenName string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "为用户签发访问令牌",
	Long:  `使用 JWT_SECRET 签发 HS256 令牌，用于本地调试 API。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUser == "" {
			return fmt.Errorf("--user is required")
		}
		auth.SetSecret(cfg.JWTSecret)
		token, err := auth.GenerateToken(tokenUser, tokenName, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "用户ID")
	tokenCmd.Flags().StringVarP(&tokenName, "name", "n", "", "用户名")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTokenTTL, "有效期")
}
