package email

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"school/internal/config"
)

// SMTPMailerはEmailSinkのSMTP実装。
// テンプレートエンジンは使わず本文は素のテキスト
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPMailer(cfg config.Config) *SMTPMailer {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}

	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from: cfg.SMTPFrom,
		auth: auth,
	}
}

func (m *SMTPMailer) SendWelcome(ctx context.Context, address string, name string) error {
	body := fmt.Sprintf("Вітаємо, %s!\n\nДякуємо за реєстрацію. Перегляньте доступні курси у вашому кабінеті.\n", name)
	return m.send(ctx, address, "Ласкаво просимо!", body)
}

func (m *SMTPMailer) SendMagicLink(ctx context.Context, address string, link string) error {
	body := fmt.Sprintf("Для входу перейдіть за посиланням:\n\n%s\n\nПосилання діє 15 хвилин.\n", link)
	return m.send(ctx, address, "Вхід без пароля", body)
}

func (m *SMTPMailer) SendAccessGranted(ctx context.Context, address string, name string, courseName string) error {
	body := fmt.Sprintf("Вітаємо, %s!\n\nВам відкрито доступ до курсу \"%s\". Бажаємо успішного навчання!\n", name, courseName)
	return m.send(ctx, address, "Доступ до курсу відкрито", body)
}

func (m *SMTPMailer) SendAccessExtended(ctx context.Context, address string, name string, courseName string, expiresOn time.Time) error {
	body := fmt.Sprintf("Вітаємо, %s!\n\nДоступ до курсу \"%s\" продовжено до %s.\n",
		name, courseName, expiresOn.Format("2006-01-02"))
	return m.send(ctx, address, "Доступ продовжено", body)
}

func (m *SMTPMailer) SendExpiryReminder(ctx context.Context, address string, name string, courseName string, expiresOn time.Time) error {
	body := fmt.Sprintf("Вітаємо, %s!\n\nДоступ до курсу \"%s\" закінчується %s. Ви можете продовжити його, надіславши відео-відгук.\n",
		name, courseName, expiresOn.Format("2006-01-02"))
	return m.send(ctx, address, "Доступ скоро закінчиться", body)
}

func (m *SMTPMailer) send(_ context.Context, to string, subject string, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.from, to, subject, body)

	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg))
}
