package utils

import (
	"fmt"
	"log"

	"onboard/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Generic Send Email
func SendEmail(toEmail, toName, subject, htmlBody string) error {
	if config.AppConfig.SendGridKey == "" {
		log.Println("[EMAIL] SendGrid key not configured, skipping email to:", toEmail)
		return nil
	}

	from := mail.NewEmail("Onboarding Team", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridKey)
	response, err := client.Send(message)
	if err != nil {
		log.Println("[EMAIL] Error sending email:", err)
		return err
	}
	if response.StatusCode >= 400 {
		log.Printf("[EMAIL] SendGrid returned %d for %s", response.StatusCode, toEmail)
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	return nil
}

// HTML Wrapper (Professional Look)
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1A2B4C; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A2B4C; line-height: 1.6; }
			.content h2 { color: #1A2B4C; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #2E86DE; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #2E86DE; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>ONBOARDING</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 Onboarding Team. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---

// 1. Welcome / Signup
func SendWelcomeEmail(email, name string) {
	subject := "Welcome Aboard"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your account has been created successfully.</p>
		<p>On your first login you may be guided through a short onboarding to get you up to speed.</p>
	`, name)

	go SendEmail(email, name, subject, getEmailTemplate("Welcome!", body))
}

// 2. Flow Completed
func SendFlowCompletionEmail(email, name, flowName string) error {
	subject := "Onboarding Complete: " + flowName
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations! You have completed the <strong>%s</strong> onboarding.</p>
		<div class="info-box">
			You now have full access to your dashboard.
		</div>
		<a href="%s" class="btn">Go to Dashboard</a>
	`, name, flowName, config.AppConfig.DashboardURL)

	return SendEmail(email, name, subject, getEmailTemplate("Onboarding Complete", body))
}

// 3. Stale Onboarding Reminder
func SendOnboardingReminderEmail(email, name, flowName string, entryURL string) error {
	subject := "Reminder: Finish Your Onboarding"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You started the <strong>%s</strong> onboarding but haven't finished it yet.</p>
		<p>It only takes a few minutes to complete.</p>
		<a href="%s" class="btn">Continue Onboarding</a>
	`, name, flowName, entryURL)

	return SendEmail(email, name, subject, getEmailTemplate("Almost There!", body))
}
