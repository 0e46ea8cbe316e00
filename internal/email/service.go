package email

import (
	"fmt"
	"mime"
	"net/smtp"
	"strconv"
	"time"
)

const (
	SubjectActivation = "Aktivasi Akun Anda!"
	SubjectVoucher    = "Voucher Pesanan Anda"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service handles email sending via SMTP
type Service struct {
	cfg  Config
	auth smtp.Auth
	send sendFunc
	now  func() time.Time
}

// NewService creates a new email service. PLAIN auth is used when a username
// is configured.
func NewService(cfg Config) *Service {
	s := &Service{cfg: cfg, send: smtp.SendMail, now: time.Now}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s
}

// SendActivation sends the account activation mail
func (s *Service) SendActivation(to string, data ActivationData) error {
	body, err := BuildActivationBody(data)
	if err != nil {
		return fmt.Errorf("render activation mail: %w", err)
	}
	return s.deliver(to, SubjectActivation, body)
}

// SendVouchers sends the voucher codes of a completed order
func (s *Service) SendVouchers(to string, data VoucherData) error {
	body, err := BuildVoucherBody(data)
	if err != nil {
		return fmt.Errorf("render voucher mail: %w", err)
	}
	return s.deliver(to, fmt.Sprintf("%s (%s)", SubjectVoucher, data.OrderID), body)
}

func (s *Service) deliver(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nDate: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.cfg.From, to, mime.QEncoding.Encode("utf-8", subject), s.now().Format(time.RFC1123Z), body)
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	return s.send(addr, s.auth, s.cfg.From, []string{to}, []byte(msg))
}
