package email

import "fmt"

// Config holds the SMTP transport settings.
type Config struct {
	SMTPHost     string
	SMTPPort     int
	Username     string
	Password     string
	FromEmail    string
	FromName     string
	UseTLS       bool
	UseSSL       bool
	TemplatePath string
}

// DefaultConfig returns a usable local-dev configuration.
func DefaultConfig() Config {
	return Config{
		SMTPHost:     "localhost",
		SMTPPort:     587,
		FromEmail:    "noreply@excos.edu",
		FromName:     "EXCOS",
		UseTLS:       true,
		TemplatePath: "./templates/email",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SMTPHost == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", c.SMTPPort)
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}
