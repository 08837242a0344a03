package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mailresolve/normalize"
)

// StoreKind selects the message-store implementation.
const (
	StoreIMAP = "imap"
	StoreMbox = "mbox"
)

// Config captures all command-line options required to run a resolution.
type Config struct {
	Anchor         time.Time
	PersonnelID    string
	PersonName     string
	Company        string
	WindowSeconds  int
	NearestLimit   int
	StoreKind      string
	MboxDir        string
	IMAPHost       string
	IMAPPort       int
	IMAPUser       string
	IMAPPass       string
	UseTLS         bool
	InsecureSkip   bool
	RulesPath      string
	FetchTimeout   time.Duration
	TempDir        string
	NonInteractive bool
	LogLevel       string
	LogDir         string
}

// RegisterFlags attaches all CLI flags to the provided command.
func RegisterFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	flags.String("anchor", "", "Reference timestamp of the triggering event (e.g. \"2024/03/01 10:00:00\")")
	flags.String("personnel-id", "", "Personnel id of the affected employee")
	flags.String("person-name", "", "Normalized person name, used for special-case matching")
	flags.String("company", "", "Company name, checked against the special-case rules")
	flags.Int("window-seconds", 180, "Half-width of the candidate collection window in seconds")
	flags.Int("nearest-limit", 200, "Cap on the diagnostic nearest-message scan")
	flags.String("store", StoreMbox, "Message store backend: imap or mbox")
	flags.String("mbox-dir", "", "Directory of mbox archives (store=mbox)")
	flags.String("imap-host", "", "IMAP server hostname (store=imap)")
	flags.Int("imap-port", 993, "IMAP server port")
	flags.String("imap-user", "", "IMAP username")
	flags.String("imap-pass", "", "IMAP password (falls back to IMAP_PASS env var)")
	flags.Bool("use-tls", true, "Use TLS for the IMAP connection")
	flags.Bool("insecure-skip-verify", false, "Skip TLS certificate verification (not recommended)")
	flags.String("rules", "", "Path to the company rules JSON snapshot")
	flags.Int("fetch-timeout", 60, "Timeout in seconds for document downloads")
	flags.String("temp-dir", "", "Directory for temporarily saved attachments")
	flags.Bool("non-interactive", false, "Fail instead of prompting when automated tiers find nothing")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (stdout only when empty)")

	if err := cmd.MarkFlagRequired("anchor"); err != nil {
		return err
	}
	if err := cmd.MarkFlagRequired("personnel-id"); err != nil {
		return err
	}

	return nil
}

// LoadConfig converts the parsed Cobra flags into a Config struct with
// validation.
func LoadConfig(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()

	anchorRaw, err := flags.GetString("anchor")
	if err != nil {
		return Config{}, err
	}
	personnelID, err := flags.GetString("personnel-id")
	if err != nil {
		return Config{}, err
	}
	personName, err := flags.GetString("person-name")
	if err != nil {
		return Config{}, err
	}
	company, err := flags.GetString("company")
	if err != nil {
		return Config{}, err
	}
	windowSeconds, err := flags.GetInt("window-seconds")
	if err != nil {
		return Config{}, err
	}
	nearestLimit, err := flags.GetInt("nearest-limit")
	if err != nil {
		return Config{}, err
	}
	storeKind, err := flags.GetString("store")
	if err != nil {
		return Config{}, err
	}
	mboxDir, err := flags.GetString("mbox-dir")
	if err != nil {
		return Config{}, err
	}
	imapHost, err := flags.GetString("imap-host")
	if err != nil {
		return Config{}, err
	}
	imapPort, err := flags.GetInt("imap-port")
	if err != nil {
		return Config{}, err
	}
	imapUser, err := flags.GetString("imap-user")
	if err != nil {
		return Config{}, err
	}
	imapPass, err := flags.GetString("imap-pass")
	if err != nil {
		return Config{}, err
	}
	useTLS, err := flags.GetBool("use-tls")
	if err != nil {
		return Config{}, err
	}
	insecureSkip, err := flags.GetBool("insecure-skip-verify")
	if err != nil {
		return Config{}, err
	}
	rulesPath, err := flags.GetString("rules")
	if err != nil {
		return Config{}, err
	}
	fetchTimeout, err := flags.GetInt("fetch-timeout")
	if err != nil {
		return Config{}, err
	}
	tempDir, err := flags.GetString("temp-dir")
	if err != nil {
		return Config{}, err
	}
	nonInteractive, err := flags.GetBool("non-interactive")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}
	logDir, err := flags.GetString("log-dir")
	if err != nil {
		return Config{}, err
	}

	anchor, err := normalize.ParseAnchor(anchorRaw)
	if err != nil {
		return Config{}, err
	}

	if imapPass == "" {
		imapPass = os.Getenv("IMAP_PASS")
	}

	logLevel = strings.ToLower(logLevel)
	if logLevel == "warning" {
		logLevel = "warn"
	}

	cfg := Config{
		Anchor:         anchor,
		PersonnelID:    normalize.Token(personnelID),
		PersonName:     normalize.Token(personName),
		Company:        company,
		WindowSeconds:  windowSeconds,
		NearestLimit:   nearestLimit,
		StoreKind:      strings.ToLower(storeKind),
		MboxDir:        mboxDir,
		IMAPHost:       imapHost,
		IMAPPort:       imapPort,
		IMAPUser:       imapUser,
		IMAPPass:       imapPass,
		UseTLS:         useTLS,
		InsecureSkip:   insecureSkip,
		RulesPath:      rulesPath,
		FetchTimeout:   time.Duration(fetchTimeout) * time.Second,
		TempDir:        tempDir,
		NonInteractive: nonInteractive,
		LogLevel:       logLevel,
		LogDir:         logDir,
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.PersonnelID == "" {
		return fmt.Errorf("--personnel-id is required")
	}
	if cfg.WindowSeconds <= 0 {
		return fmt.Errorf("--window-seconds must be positive")
	}
	if cfg.NearestLimit <= 0 {
		return fmt.Errorf("--nearest-limit must be positive")
	}

	switch cfg.StoreKind {
	case StoreMbox:
		if cfg.MboxDir == "" {
			return fmt.Errorf("--mbox-dir is required when --store=mbox")
		}
	case StoreIMAP:
		if cfg.IMAPHost == "" {
			return fmt.Errorf("--imap-host is required when --store=imap")
		}
		if cfg.IMAPUser == "" {
			return fmt.Errorf("--imap-user is required when --store=imap")
		}
		if cfg.IMAPPass == "" {
			return fmt.Errorf("IMAP password must be provided via --imap-pass or IMAP_PASS env var")
		}
		if cfg.IMAPPort <= 0 || cfg.IMAPPort > 65535 {
			return fmt.Errorf("--imap-port must be between 1 and 65535")
		}
	default:
		return fmt.Errorf("invalid --store: %s", cfg.StoreKind)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}
