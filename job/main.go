package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fleet-ng/server/portal/chore/capability_refresh"
	"fleet-ng/job/email/work_report"

	"go.uber.org/zap"
)

var (
	rootCmd = &cobra.Command{
		Use:   "job",
		Short: "Fleet job runner",
		Long:  `Fleet job runner is a CLI tool for running maintenance background jobs including report emails and data reconciliation tasks.`,
	}

	// 全局标志
	mysqlDSN string
)

func init() {
	// 全局标志
	rootCmd.PersistentFlags().StringVar(&mysqlDSN, "mysql-dsn", "", "MySQL connection string (default: root:root@tcp(127.0.0.1:3306)/fleet?charset=utf8mb4&parseTime=True&loc=Local)")

	// 添加子命令
	rootCmd.AddCommand(choreCmd)
	rootCmd.AddCommand(emailCmd)
}

// chore 命令
var choreCmd = &cobra.Command{
	Use:   "chore",
	Short: "Run chore jobs",
	Long:  `Run chore jobs for data reconciliation and cleanup.`,
}

// email 命令
var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Run email notification jobs",
	Long:  `Run email notification jobs for maintenance reports.`,
}

// capability-refresh 命令
var capabilityRefreshCmd = &cobra.Command{
	Use:   "capability-refresh",
	Short: "Recompute asset capability status",
	Long:  `Recompute the worst active capability status for every asset from its open limitation records.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := initDB(mysqlDSN)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()

		refresher := capability_refresh.NewRefresher(db, logger)
		return refresher.Run(cmd.Context())
	},
}

// work-report 命令
var (
	smtpHost     string
	smtpPort     int
	smtpUser     string
	smtpPassword string
	fromEmail    string
	toEmails     string

	workReportCmd = &cobra.Command{
		Use:   "work-report",
		Short: "Send weekly maintenance work report email",
		Long:  `Generate and send the weekly maintenance work report email with an attached spreadsheet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := initDB(mysqlDSN)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}

			// 解析收件人列表
			recipients := strings.Split(toEmails, ",")
			if len(recipients) == 0 {
				return fmt.Errorf("at least one recipient email is required")
			}

			sender := work_report.NewWorkReportSender(
				db,
				smtpHost,
				smtpPort,
				smtpUser,
				smtpPassword,
				fromEmail,
				recipients,
			)
			return sender.Run(cmd.Context())
		},
	}
)

func init() {
	choreCmd.AddCommand(capabilityRefreshCmd)
	emailCmd.AddCommand(workReportCmd)

	// 添加work-report命令的标志
	workReportCmd.Flags().StringVar(&smtpHost, "smtp-host", "", "SMTP server host")
	workReportCmd.Flags().IntVar(&smtpPort, "smtp-port", 587, "SMTP server port")
	workReportCmd.Flags().StringVar(&smtpUser, "smtp-user", "", "SMTP username")
	workReportCmd.Flags().StringVar(&smtpPassword, "smtp-password", "", "SMTP password")
	workReportCmd.Flags().StringVar(&fromEmail, "from", "", "Sender email address")
	workReportCmd.Flags().StringVar(&toEmails, "to", "", "Comma-separated list of recipient email addresses")

	// 标记必需的标志
	workReportCmd.MarkFlagRequired("smtp-host")
	workReportCmd.MarkFlagRequired("smtp-user")
	workReportCmd.MarkFlagRequired("smtp-password")
	workReportCmd.MarkFlagRequired("from")
	workReportCmd.MarkFlagRequired("to")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
