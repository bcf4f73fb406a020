package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the reminder service.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for the command API
	Addr string
	// Port is the binding port for the command API
	Port int
	// Data is the data directory
	Data string
	// DSN points to where remindd stores its own data
	DSN string
	// Driver is the database driver (sqlite, postgres or memory)
	Driver string
	// Version is the current version of the service
	Version string

	// HostWebhookURL is the chat-host bridge endpoint deliveries are posted to.
	HostWebhookURL string
	// HostWebhookSecret is sent with every bridge request.
	HostWebhookSecret string

	// MaxUserReminders caps active reminders per owner.
	MaxUserReminders int
	// MaxReminderLength caps reminder body length in code points.
	MaxReminderLength int
	// TruncateLongBodies truncates over-long bodies instead of rejecting them.
	TruncateLongBodies bool
	// ProcessingInterval is the sweeper tick interval.
	ProcessingInterval time.Duration
	// BatchSize bounds how many due reminders one tick picks up.
	BatchSize int
	// CleanupDays is how long terminal reminders are kept before purging.
	CleanupDays int
	// PaginatorTimeout is the idle expiry of list-page sessions.
	PaginatorTimeout time.Duration
	// CooldownRate is how many creations CooldownPeriod allows per user.
	CooldownRate int
	// CooldownPeriod is the window for CooldownRate.
	CooldownPeriod time.Duration
	// FallbackChannels are walked in order when neither the origin channel
	// nor a direct message is deliverable.
	FallbackChannels []string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// FromEnv loads delivery configuration from REMINDD_* environment variables.
// Flag values already set take precedence over the environment.
func (p *Profile) FromEnv() {
	if p.HostWebhookURL == "" {
		p.HostWebhookURL = os.Getenv("REMINDD_HOST_WEBHOOK_URL")
	}
	if p.HostWebhookSecret == "" {
		p.HostWebhookSecret = os.Getenv("REMINDD_HOST_WEBHOOK_SECRET")
	}
	if v := os.Getenv("REMINDD_FALLBACK_CHANNELS"); v != "" {
		p.FallbackChannels = splitChannelList(v)
	}
}

func splitChannelList(v string) []string {
	parts := strings.Split(v, ",")
	channels := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			channels = append(channels, name)
		}
	}
	return channels
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// DefaultFallbackChannels is the channel walk order used when none is configured.
var DefaultFallbackChannels = []string{"bot-spam", "bot-commands", "general", "off-topic", "bot"}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}

	if p.MaxUserReminders <= 0 {
		p.MaxUserReminders = 30
	}
	if p.MaxReminderLength <= 0 {
		p.MaxReminderLength = 400
	}
	if p.ProcessingInterval <= 0 {
		p.ProcessingInterval = 120 * time.Second
	}
	if p.BatchSize <= 0 {
		p.BatchSize = 100
	}
	if p.CleanupDays <= 0 {
		p.CleanupDays = 30
	}
	if p.PaginatorTimeout <= 0 {
		p.PaginatorTimeout = 120 * time.Second
	}
	if p.CooldownRate <= 0 {
		p.CooldownRate = 3
	}
	if p.CooldownPeriod <= 0 {
		p.CooldownPeriod = 60 * time.Second
	}
	if len(p.FallbackChannels) == 0 {
		p.FallbackChannels = append([]string{}, DefaultFallbackChannels...)
	}

	switch p.Driver {
	case "memory":
		return nil
	case "sqlite":
		if p.Data == "" {
			p.Data = "."
		}
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			return errors.Wrap(err, "invalid data directory")
		}
		p.Data = dataDir
		if p.DSN == "" {
			dbFile := fmt.Sprintf("remindd_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
		return nil
	case "postgres":
		if p.DSN == "" {
			return errors.New("postgres driver requires a DSN")
		}
		return nil
	}

	return errors.Errorf("unknown db driver %q: only 'sqlite', 'postgres' and 'memory' are supported", p.Driver)
}
