package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cvbuilder/internal/classroom"
	"cvbuilder/internal/config"
)

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "管理课堂会话",
}

var (
	classConfigFile string
	classTTL        time.Duration
)

var classesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "创建课堂并打印代码与教师密钥（密钥只显示一次）",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var raw json.RawMessage
		if classConfigFile != "" {
			data, err := os.ReadFile(classConfigFile)
			if err != nil {
				return fmt.Errorf("read config file: %w", err)
			}
			raw = data
		}

		svc, err := newClassService()
		if err != nil {
			return err
		}
		created, err := svc.Create(cmd.Context(), raw)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "课堂代码: %s\n", created.ClassCode)
		fmt.Fprintf(out, "教师密钥: %s\n", created.TeacherSecret)
		fmt.Fprintf(out, "过期时间: %s\n", created.ExpiresAt.Format(time.RFC3339))
		return nil
	},
}

var classesShowCmd = &cobra.Command{
	Use:   "show CODE",
	Short: "打印课堂配置",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newClassService()
		if err != nil {
			return err
		}
		view, err := svc.Config(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	},
}

var classesPurgeCmd = &cobra.Command{
	Use:   "purge-expired",
	Short: "删除已过期的课堂会话",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := newClassService()
		if err != nil {
			return err
		}
		n, err := svc.PurgeExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已删除 %d 个过期课堂\n", n)
		return nil
	},
}

func init() {
	classesCreateCmd.Flags().StringVar(&classConfigFile, "config", "", "课堂配置 JSON 文件")
	classesCreateCmd.Flags().DurationVar(&classTTL, "ttl", 7*24*time.Hour, "课堂有效期")

	classesCmd.AddCommand(classesCreateCmd, classesShowCmd, classesPurgeCmd)
	rootCmd.AddCommand(classesCmd)
}

func newClassService() (*classroom.Service, error) {
	db, err := openDatabase()
	if err != nil {
		return nil, err
	}
	return classroom.NewService(db, config.ClassroomConfig{TTL: classTTL}, nil), nil
}
