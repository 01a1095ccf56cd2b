// Package enrich provides best-effort login enrichment: user-agent breakdown and IP geolocation.
package enrich

import (
	"strings"

	"github.com/mssola/useragent"

	"github.com/dtroode/erp-sessions/internal/model"
)

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceBot     = "bot"
)

var (
	_ model.UserAgentParser = UserAgentParser{}
	_ model.UserAgentParser = NoopUserAgentParser{}
)

// UserAgentParser parses user-agent strings with mssola/useragent.
type UserAgentParser struct{}

func (UserAgentParser) Parse(raw string) (info model.UserAgentInfo) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.UserAgentInfo{}
	}
	defer func() {
		if recover() != nil {
			info = model.UserAgentInfo{}
		}
	}()

	ua := useragent.New(raw)
	name, version := ua.Browser()
	info.Browser = strings.TrimSpace(name + " " + version)
	info.OS = ua.OS()

	switch {
	case ua.Bot():
		info.Device = DeviceBot
	case ua.Mobile():
		info.Device = DeviceMobile
	default:
		info.Device = DeviceDesktop
	}
	return info
}

// NoopUserAgentParser leaves enrichment empty.
type NoopUserAgentParser struct{}

func (NoopUserAgentParser) Parse(string) model.UserAgentInfo {
	return model.UserAgentInfo{}
}

// NewUserAgentParser selects a parser by name: "useragent" or "noop".
func NewUserAgentParser(name string) model.UserAgentParser {
	if name == "noop" {
		return NoopUserAgentParser{}
	}
	return UserAgentParser{}
}
