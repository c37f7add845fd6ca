package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"cvbuilder/internal/auth"
)

var hashPINCmd = &cobra.Command{
	Use:   "hash-pin PIN",
	Short: "打印 4 位 PIN 的 bcrypt 哈希",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPIN(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var redisAddr string

var resetPINCmd = &cobra.Command{
	Use:   "reset-pin PROFILE",
	Short: "删除某个浏览器档案的 Teacher Mode PIN，下次启用时重新设置",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer client.Close()

		n, err := client.Del(cmd.Context(), auth.PINHashKey(args[0]), auth.PINAttemptKey(args[0])).Result()
		if err != nil {
			return fmt.Errorf("delete pin keys: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已删除 %d 个键\n", n)
		return nil
	},
}

func init() {
	resetPINCmd.Flags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis 地址")
	rootCmd.AddCommand(hashPINCmd, resetPINCmd)
}
