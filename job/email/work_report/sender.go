package work_report

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"fleet-ng/models/maintdb"

	"github.com/Masterminds/sprig/v3"
	"github.com/jinzhu/now"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed template.html
var templateFS embed.FS

// DateFormat defines the standard date format used in the report.
const DateFormat = "2006-01-02"

// WorkReportSender handles the generation and sending of weekly maintenance work reports.
type WorkReportSender struct {
	db           *gorm.DB
	smtpHost     string
	smtpPort     int
	smtpUser     string
	smtpPassword string
	fromEmail    string
	toEmails     []string
	logger       *zap.Logger
}

// NewWorkReportSender creates a new instance of WorkReportSender.
func NewWorkReportSender(db *gorm.DB, smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string, toEmails []string) *WorkReportSender {
	logger, err := zap.NewProduction()
	if err != nil {
		logger, _ = zap.NewDevelopment() // Fallback to development logger
	}
	return &WorkReportSender{
		db:           db,
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    fromEmail,
		toEmails:     toEmails,
		logger:       logger,
	}
}

// Run executes the report generation and sending process.
func (s *WorkReportSender) Run(ctx context.Context) error {
	s.logger.Info("Starting weekly maintenance work report generation...")

	data, err := s.fetchReportData(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch work report data", zap.Error(err))
		return fmt.Errorf("failed to fetch work report data: %w", err)
	}

	if len(data.CompletedSets) == 0 {
		s.logger.Info("No completed maintenance this week, sending empty report.")
	}

	emailBody, err := s.generateEmailContent(data)
	if err != nil {
		s.logger.Error("Failed to generate email content", zap.Error(err))
		return fmt.Errorf("failed to generate email content: %w", err)
	}

	workbook, err := GenerateWorkReportExcel(data)
	if err != nil {
		s.logger.Error("Failed to generate excel attachment", zap.Error(err))
		return fmt.Errorf("failed to generate excel attachment: %w", err)
	}
	var attachment bytes.Buffer
	if err := workbook.Write(&attachment); err != nil {
		return fmt.Errorf("failed to serialize excel attachment: %w", err)
	}

	subject := fmt.Sprintf("每周维护工作报告 - %s", data.ReportDate)
	attachmentName := fmt.Sprintf("work-report-%s.xlsx", data.ReportDate)

	if err := s.sendEmail(subject, emailBody, attachmentName, attachment.Bytes()); err != nil {
		s.logger.Error("Failed to send work report email", zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Weekly maintenance work report sent successfully.",
		zap.Int("completedSets", len(data.CompletedSets)))
	return nil
}

// fetchReportData retrieves this week's completed action sets and per-technician totals.
func (s *WorkReportSender) fetchReportData(ctx context.Context) (ReportTemplateData, error) {
	weekStart := now.BeginningOfWeek()
	weekEnd := now.EndOfWeek()

	var sets []CompletedSetRow
	err := s.db.WithContext(ctx).Model(&maintdb.MaintenanceActionSet{}).
		Select(`maintenance_action_sets.id as set_id,
			assets.serial_number as asset_serial,
			assets.name as asset_name,
			maintenance_action_sets.task_name,
			COALESCE(users.username, '') as completed_by,
			maintenance_action_sets.end_date,
			COALESCE(maintenance_action_sets.actual_billable_hours, 0) as billable_hours,
			(SELECT COUNT(*) FROM actions WHERE actions.maintenance_action_set_id = maintenance_action_sets.id) as action_count`).
		Joins("JOIN assets ON assets.id = maintenance_action_sets.asset_id").
		Joins("LEFT JOIN users ON users.id = maintenance_action_sets.completed_by_id").
		Where("maintenance_action_sets.status = ? AND maintenance_action_sets.end_date between ? and ?",
			maintdb.ActionSetStatusComplete, weekStart, weekEnd).
		Order("maintenance_action_sets.end_date asc").
		Scan(&sets).Error
	if err != nil {
		return ReportTemplateData{}, fmt.Errorf("failed to query completed action sets: %w", err)
	}

	var technicians []TechnicianSummary
	err = s.db.WithContext(ctx).Model(&maintdb.MaintenanceActionSet{}).
		Select(`COALESCE(users.username, 'unassigned') as username,
			COUNT(*) as completed_sets,
			SUM(COALESCE(maintenance_action_sets.actual_billable_hours, 0)) as billable_hours`).
		Joins("LEFT JOIN users ON users.id = maintenance_action_sets.completed_by_id").
		Where("maintenance_action_sets.status = ? AND maintenance_action_sets.end_date between ? and ?",
			maintdb.ActionSetStatusComplete, weekStart, weekEnd).
		Group("users.username").
		Order("billable_hours desc").
		Scan(&technicians).Error
	if err != nil {
		return ReportTemplateData{}, fmt.Errorf("failed to query technician summaries: %w", err)
	}

	var totalHours float64
	for _, t := range technicians {
		totalHours += t.BillableHours
	}

	return ReportTemplateData{
		ReportDate:    time.Now().Format(DateFormat),
		WeekStart:     weekStart.Format(DateFormat),
		WeekEnd:       weekEnd.Format(DateFormat),
		CompletedSets: sets,
		Technicians:   technicians,
		TotalHours:    totalHours,
	}, nil
}

// generateEmailContent renders the HTML email body using the template and data.
func (s *WorkReportSender) generateEmailContent(data ReportTemplateData) (string, error) {
	tmpl, err := template.New("workReport").Funcs(sprig.HtmlFuncMap()).ParseFS(templateFS, "template.html")
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "template.html", data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}

// sendEmail sends the generated report with the excel workbook attached.
func (s *WorkReportSender) sendEmail(subject, body, attachmentName string, attachment []byte) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	addr := fmt.Sprintf("%s:%d", s.smtpHost, s.smtpPort)
	boundary := "fleet-work-report-boundary"

	var msg bytes.Buffer
	msg.WriteString("From: " + s.fromEmail + "\r\n")
	msg.WriteString("To: " + s.toEmails[0])
	for i := 1; i < len(s.toEmails); i++ {
		msg.WriteString("," + s.toEmails[i])
	}
	msg.WriteString("\r\nSubject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n\r\n")

	msg.WriteString("--" + boundary + "\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(body + "\r\n")

	msg.WriteString("--" + boundary + "\r\n")
	msg.WriteString("Content-Type: application/vnd.openxmlformats-officedocument.spreadsheetml.sheet\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString("Content-Disposition: attachment; filename=\"" + attachmentName + "\"\r\n\r\n")
	msg.WriteString(base64.StdEncoding.EncodeToString(attachment) + "\r\n")
	msg.WriteString("--" + boundary + "--")

	s.logger.Info("Sending email", zap.Strings("to", s.toEmails), zap.String("subject", subject))
	if err := smtp.SendMail(addr, auth, s.fromEmail, s.toEmails, msg.Bytes()); err != nil {
		return fmt.Errorf("smtp.SendMail failed: %w", err)
	}
	return nil
}
