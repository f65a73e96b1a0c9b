package config

import (
	"os"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("ALLOWED_USERS", "1:2:3")
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.LogsDir != "chat_logs" || cfg.ReportHour != 21 || cfg.ReportMinute != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.AllowedUsers) != 3 || cfg.AllowedUsers[2] != 3 {
		t.Fatalf("allowed users: %v", cfg.AllowedUsers)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.Local {
		t.Fatalf("location: %v %v", loc, err)
	}
}

func TestParse_RequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	_ = os.Unsetenv("TELEGRAM_BOT_TOKEN")
	if _, err := Parse(); err == nil {
		t.Fatalf("missing token accepted")
	}
}

func TestParse_RejectsBadSchedule(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("REPORT_HOUR", "25")
	if _, err := Parse(); err == nil {
		t.Fatalf("hour 25 accepted")
	}
}

func TestParse_RejectsUnknownZone(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("REPORT_TIMEZONE", "Mars/Olympus")
	if _, err := Parse(); err == nil {
		t.Fatalf("unknown zone accepted")
	}
}

func TestParseLogConfig_WithoutBotToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	_ = os.Unsetenv("TELEGRAM_BOT_TOKEN")
	t.Setenv("LOGS_DIR", "/var/lib/bot/logs")
	t.Setenv("REPORT_TIMEZONE", "UTC")
	lc, err := ParseLogConfig()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if lc.LogsDir != "/var/lib/bot/logs" {
		t.Fatalf("LOGS_DIR ignored: %+v", lc)
	}
	if loc, _ := lc.Location(); loc != time.UTC {
		t.Fatalf("REPORT_TIMEZONE ignored: %v", loc)
	}
}

func TestParseLogConfig_RejectsBadZone(t *testing.T) {
	t.Setenv("REPORT_TIMEZONE", "Mars/Olympus")
	if _, err := ParseLogConfig(); err == nil {
		t.Fatalf("bad zone accepted")
	}
}

func TestParse_EmbedsLogConfig(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("LOGS_DIR", "logs")
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.LogsDir != "logs" {
		t.Fatalf("nested log config not parsed: %+v", cfg.LogConfig)
	}
}
