package models

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// SettingDefinition describes a configurable application setting.
type SettingDefinition struct {
	Key         string // DB key, e.g. "llm.model"
	EnvVar      string // Override env var, e.g. "COACHDESK_LLM_MODEL"
	Default     string // Built-in default value
	Label       string // Human-readable label for the settings API
	Description string // Help text for the settings API
	Category    string // Grouping key
	Sensitive   bool   // If true, value is encrypted in DB and masked in responses
}

// SettingValue represents a resolved setting with its source.
type SettingValue struct {
	Key      string
	Value    string
	Source   string // "env", "db", "default"
	Masked   string // Display value (masked for sensitive settings)
	ReadOnly bool   // True if set via env var (not editable via the API)
}

// SettingsRegistry defines all known application settings.
var SettingsRegistry = []SettingDefinition{
	// --- General ---
	{
		Key: "app.name", EnvVar: "COACHDESK_APP_NAME", Default: "CoachDesk",
		Label: "Application Name", Description: "Name shown in notifications",
		Category: "General",
	},
	// --- Assistant ---
	{
		Key: "llm.base_url", EnvVar: "COACHDESK_LLM_BASE_URL", Default: "",
		Label: "Completion API Base URL", Description: "OpenAI-compatible endpoint; empty means the assistant is not configured",
		Category: "Assistant",
	},
	{
		Key: "llm.model", EnvVar: "COACHDESK_LLM_MODEL", Default: "gpt-4o",
		Label: "Completion Model", Description: "Model name sent with each completion request",
		Category: "Assistant",
	},
	{
		Key: "llm.api_key", EnvVar: "COACHDESK_LLM_API_KEY", Default: "",
		Label: "Completion API Key", Description: "Bearer token for the completion service",
		Category: "Assistant", Sensitive: true,
	},
	{
		Key: "llm.temperature", EnvVar: "", Default: "0.3",
		Label: "Temperature", Description: "Sampling temperature for completion calls",
		Category: "Assistant",
	},
	// --- Knowledge ---
	{
		Key: "knowledge.base_url", EnvVar: "COACHDESK_KNOWLEDGE_BASE_URL", Default: "",
		Label: "Knowledge Service URL", Description: "Retrieval/ingestion service; empty disables the feature",
		Category: "Knowledge",
	},
	{
		Key: "knowledge.api_key", EnvVar: "COACHDESK_KNOWLEDGE_API_KEY", Default: "",
		Label: "Knowledge API Key", Description: "Bearer token for the knowledge service",
		Category: "Knowledge", Sensitive: true,
	},
	{
		Key: "knowledge.collection", EnvVar: "", Default: "coachdesk-reports",
		Label: "Knowledge Collection", Description: "Collection generated artifacts are ingested into",
		Category: "Knowledge",
	},
	// --- Digest ---
	{
		Key: "digest.daily_budget", EnvVar: "", Default: "7",
		Label: "Digest Daily Samples", Description: "Daily check-ins per client in the all-clients digest",
		Category: "Digest",
	},
	{
		Key: "digest.weekly_budget", EnvVar: "", Default: "2",
		Label: "Digest Weekly Samples", Description: "Weekly check-ins per client in the all-clients digest",
		Category: "Digest",
	},
	// --- Reports ---
	{
		Key: "reports.interval_hours", EnvVar: "", Default: "168",
		Label: "Report Interval (hours)", Description: "How often the scheduler regenerates weekly reports",
		Category: "Reports",
	},
	// --- Notifications ---
	{
		Key: "notify.urls", EnvVar: "COACHDESK_NOTIFY_URLS", Default: "",
		Label: "Broadcast URLs", Description: "Comma-separated shoutrrr URLs for report broadcasts",
		Category: "Notifications",
	},
}

// GetSetting resolves a setting: env var wins, then DB (decrypted if
// sensitive), then the built-in default. Unknown keys resolve to "".
func GetSetting(db *sql.DB, key string) string {
	def := findDefinition(key)
	if def == nil {
		return ""
	}

	if def.EnvVar != "" {
		if v := os.Getenv(def.EnvVar); v != "" {
			return v
		}
	}

	var raw string
	err := db.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, key).Scan(&raw)
	if err == nil {
		if def.Sensitive && strings.HasPrefix(raw, "enc:") {
			decrypted, err := decryptValue(raw[4:])
			if err == nil {
				return decrypted
			}
			// Fall through to default if decryption fails.
		} else {
			return raw
		}
	}

	return def.Default
}

// SetSetting stores a setting in the database, encrypting sensitive values.
func SetSetting(db *sql.DB, key, value string) error {
	def := findDefinition(key)
	if def == nil {
		return fmt.Errorf("models: unknown setting key %q", key)
	}

	storeValue := value
	if def.Sensitive && value != "" {
		encrypted, err := encryptValue(value)
		if err != nil {
			return fmt.Errorf("models: encrypt setting %q: %w", key, err)
		}
		storeValue = "enc:" + encrypted
	}

	_, err := db.Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, storeValue,
	)
	if err != nil {
		return fmt.Errorf("models: set setting %q: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a setting from the database (reverts to env var or default).
func DeleteSetting(db *sql.DB, key string) error {
	_, err := db.Exec(`DELETE FROM app_settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("models: delete setting %q: %w", key, err)
	}
	return nil
}

// ListSettingValues resolves every registered setting with masking applied.
func ListSettingValues(db *sql.DB) []SettingValue {
	values := make([]SettingValue, 0, len(SettingsRegistry))
	for _, def := range SettingsRegistry {
		values = append(values, resolveSettingValue(db, def))
	}
	return values
}

// IsAssistantConfigured reports whether a completion endpoint is configured.
func IsAssistantConfigured(db *sql.DB) bool {
	return GetSetting(db, "llm.base_url") != ""
}

// GetTemperature reads the sampling temperature setting.
func GetTemperature(db *sql.DB) float64 {
	v := GetSetting(db, "llm.temperature")
	var temp float64
	if _, err := fmt.Sscanf(v, "%f", &temp); err != nil {
		return 0.3
	}
	return temp
}

// GetDigestDailyBudget returns the per-client daily sample budget for the
// all-clients digest.
func GetDigestDailyBudget(db *sql.DB) int {
	if v := GetSetting(db, "digest.daily_budget"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 50 {
			return n
		}
	}
	return 7
}

// GetDigestWeeklyBudget returns the per-client weekly sample budget for the
// all-clients digest.
func GetDigestWeeklyBudget(db *sql.DB) int {
	if v := GetSetting(db, "digest.weekly_budget"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 20 {
			return n
		}
	}
	return 2
}

// GetReportIntervalHours returns the scheduler interval from app settings.
func GetReportIntervalHours(db *sql.DB) int {
	if v := GetSetting(db, "reports.interval_hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 720 {
			return n
		}
	}
	return 168
}

// GetAppName returns the configured application name.
func GetAppName(db *sql.DB) string {
	if v := GetSetting(db, "app.name"); v != "" {
		return v
	}
	return "CoachDesk"
}

// --- Internal helpers ---

func findDefinition(key string) *SettingDefinition {
	for i := range SettingsRegistry {
		if SettingsRegistry[i].Key == key {
			return &SettingsRegistry[i]
		}
	}
	return nil
}

func resolveSettingValue(db *sql.DB, def SettingDefinition) SettingValue {
	sv := SettingValue{Key: def.Key}

	if def.EnvVar != "" {
		if v := os.Getenv(def.EnvVar); v != "" {
			sv.Value = v
			sv.Source = "env"
			sv.ReadOnly = true
			sv.Masked = maskValue(v, def.Sensitive)
			return sv
		}
	}

	var raw string
	err := db.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, def.Key).Scan(&raw)
	if err == nil {
		sv.Source = "db"
		if def.Sensitive && strings.HasPrefix(raw, "enc:") {
			decrypted, err := decryptValue(raw[4:])
			if err == nil {
				sv.Value = decrypted
				sv.Masked = maskValue(decrypted, true)
			} else {
				sv.Value = ""
				sv.Masked = "(decryption failed)"
			}
		} else {
			sv.Value = raw
			sv.Masked = maskValue(raw, def.Sensitive)
		}
		return sv
	}

	sv.Value = def.Default
	sv.Source = "default"
	sv.Masked = maskValue(def.Default, def.Sensitive)
	return sv
}

func maskValue(value string, sensitive bool) string {
	if !sensitive || value == "" {
		return value
	}
	if len(value) <= 8 {
		return "••••••••"
	}
	return value[:4] + "••••" + value[len(value)-4:]
}

// --- Encryption helpers ---

// secretKey returns the 32-byte encryption key derived from
// COACHDESK_SECRET_KEY using HKDF (RFC 5869). Returns nil if the env var is
// not set.
func secretKey() []byte {
	key := os.Getenv("COACHDESK_SECRET_KEY")
	if key == "" {
		return nil
	}
	h := hkdf.New(sha256.New, []byte(key), []byte("coachdesk-settings-v1"), []byte("aes-256-gcm"))
	derived := make([]byte, 32)
	if _, err := io.ReadFull(h, derived); err != nil {
		return nil
	}
	return derived
}

func encryptValue(plaintext string) (string, error) {
	key := secretKey()
	if key == nil {
		return "", fmt.Errorf("COACHDESK_SECRET_KEY not set — cannot encrypt sensitive settings")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func decryptValue(encoded string) (string, error) {
	key := secretKey()
	if key == nil {
		return "", fmt.Errorf("COACHDESK_SECRET_KEY not set — cannot decrypt")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < aesGCM.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := ciphertext[:aesGCM.NonceSize()], ciphertext[aesGCM.NonceSize():]

	plaintext, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// GetOrCreateSecretKey ensures a secret key exists for encrypting sensitive
// settings. Resolution: COACHDESK_SECRET_KEY env var → _internal.secret_key
// DB row → auto-generate. The key is stored in plaintext in app_settings
// (since it IS the encryption key). Sets the env var so the rest of the
// code can use it.
func GetOrCreateSecretKey(db *sql.DB) (key, source string, err error) {
	if key = os.Getenv("COACHDESK_SECRET_KEY"); key != "" {
		_, _ = db.Exec(
			`INSERT INTO app_settings (key, value) VALUES ('_internal.secret_key', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key,
		)
		return key, "env", nil
	}

	err = db.QueryRow(`SELECT value FROM app_settings WHERE key = '_internal.secret_key'`).Scan(&key)
	if err == nil && key != "" {
		os.Setenv("COACHDESK_SECRET_KEY", key)
		return key, "database", nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("models: generate secret key: %w", err)
	}
	key = base64.StdEncoding.EncodeToString(buf)

	_, err = db.Exec(
		`INSERT INTO app_settings (key, value) VALUES ('_internal.secret_key', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key,
	)
	if err != nil {
		return "", "", fmt.Errorf("models: store secret key: %w", err)
	}

	os.Setenv("COACHDESK_SECRET_KEY", key)
	return key, "generated", nil
}
