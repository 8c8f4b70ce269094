package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/voiceline/callrelay/internal/env"
)

type config struct {
	port    string
	baseURL string

	openaiAPIKey  string
	openaiBaseURL string
	openaiModel   string
	llmMaxTokens  int

	systemPrompt string

	mailHost      string
	mailPort      int
	mailSender    string
	mailPassword  string
	mailRecipient string

	twilioAPIURL      string
	twilioAccountSID  string
	twilioAuthToken   string
	twilioPhoneNumber string

	databaseURL string
}

func loadConfig() config {
	// Mirrors the original deployment: local overrides come from a .env
	// file when present.
	godotenv.Load()

	return config{
		port:    env.Str("PORT", "8080"),
		baseURL: strings.TrimRight(env.Str("BASE_URL", ""), "/"),

		openaiAPIKey:  env.Str("OPENAI_API_KEY", ""),
		openaiBaseURL: env.Str("OPENAI_BASE_URL", ""),
		openaiModel:   env.Str("OPENAI_MODEL", "gpt-4o"),
		llmMaxTokens:  envInt("LLM_MAX_TOKENS", 150),

		systemPrompt: env.Str("SYSTEM_PROMPT", ""),

		mailHost:      env.Str("SMTP_HOST", "smtp.gmail.com"),
		mailPort:      envInt("SMTP_PORT", 587),
		mailSender:    env.Str("MAIL_SENDER", ""),
		mailPassword:  env.Str("MAIL_PASSWORD", ""),
		mailRecipient: env.Str("MAIL_RECIPIENT", ""),

		twilioAPIURL:      env.Str("TWILIO_API_URL", "https://api.twilio.com"),
		twilioAccountSID:  env.Str("TWILIO_ACCOUNT_SID", ""),
		twilioAuthToken:   env.Str("TWILIO_AUTH_TOKEN", ""),
		twilioPhoneNumber: env.Str("TWILIO_PHONE_NUMBER", ""),

		databaseURL: env.Str("DATABASE_URL", ""),
	}
}

// validate fails fast on partial credential sets. A capability that is
// entirely absent just stays disabled.
func (c config) validate() error {
	mailSet := 0
	for _, v := range []string{c.mailSender, c.mailPassword, c.mailRecipient} {
		if v != "" {
			mailSet++
		}
	}
	if mailSet > 0 && mailSet < 3 {
		return fmt.Errorf("partial mail configuration: MAIL_SENDER, MAIL_PASSWORD, and MAIL_RECIPIENT must all be set")
	}

	// The auth token alone is valid (webhook signature checks); dialing
	// additionally needs the account, a number, and a public base URL.
	if c.twilioAccountSID != "" || c.twilioPhoneNumber != "" {
		if c.twilioAccountSID == "" || c.twilioAuthToken == "" || c.twilioPhoneNumber == "" {
			return fmt.Errorf("partial telephony configuration: TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, and TWILIO_PHONE_NUMBER must all be set")
		}
		if c.baseURL == "" {
			return fmt.Errorf("outbound dialing requires BASE_URL")
		}
	}
	return nil
}

func (c config) mailConfigured() bool {
	return c.mailSender != "" && c.mailPassword != "" && c.mailRecipient != ""
}

func (c config) dialConfigured() bool {
	return c.twilioAccountSID != "" && c.twilioAuthToken != "" && c.twilioPhoneNumber != "" && c.baseURL != ""
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
