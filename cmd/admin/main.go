package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"cvbuilder/internal/config"
	"cvbuilder/internal/database"
)

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "CV builder 运维命令",
	Long:         "管理课堂会话、清理过期数据、处理 Teacher Mode PIN。",
	SilenceUsage: true,
}

var (
	dbHost  string
	dbPort  int
	dbName  string
	dbUser  string
	dbPass  string
	sslMode string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dbHost, "db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
	flags.IntVar(&dbPort, "db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
	flags.StringVar(&dbName, "db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
	flags.StringVar(&dbUser, "db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
	flags.StringVar(&dbPass, "db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
	flags.StringVar(&sslMode, "db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openDatabase() (*gorm.DB, error) {
	dbCfg, err := loadDatabaseConfig(dbHost, dbPort, dbName, dbUser, dbPass, sslMode)
	if err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	return db, nil
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}
