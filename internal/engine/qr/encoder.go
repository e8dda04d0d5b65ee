package qr

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Practical ceiling for scannable content. 2953 is the byte-mode capacity of
// a version 40-L symbol.
const maxContentLength = 2953

// vCard 3.0 / iCalendar text escaping (RFC 2426 / RFC 5545).
var textEscaper = strings.NewReplacer(
	"\\", "\\\\",
	";", "\\;",
	",", "\\,",
	"\n", "\\n",
	"\r", "",
)

// WiFi network config escaping. SSIDs and passwords may legally contain every
// one of these.
var wifiEscaper = strings.NewReplacer(
	"\\", "\\\\",
	";", "\\;",
	",", "\\,",
	"\"", "\\\"",
	"\n", "\\n",
	"\r", "",
	"\t", "\\t",
)

var validSecurity = map[string]bool{
	"WEP":    true,
	"WPA":    true,
	"WPA2":   true,
	"WPA3":   true,
	"NOPASS": true,
}

// Encode converts a typed payload into the scannable content string for its
// QR type. The switch is exhaustive over the closed set of types; an
// unhandled type is a programming error.
func Encode(t QRType, data Payload) (EncodedPayload, error) {
	var content string
	var err error

	switch t {
	case TypeURL:
		if data.URL == nil {
			return EncodedPayload{}, fmt.Errorf("%w: url", ErrMissingField)
		}
		content, err = encodeURL(data.URL.URL)
	case TypeText:
		if data.Text == nil || data.Text.Content == "" {
			return EncodedPayload{}, fmt.Errorf("%w: text content", ErrMissingField)
		}
		content = data.Text.Content
	case TypeVCard:
		if data.VCard == nil {
			return EncodedPayload{}, fmt.Errorf("%w: vcard", ErrMissingField)
		}
		content, err = encodeVCard(data.VCard)
	case TypeWiFi:
		if data.WiFi == nil {
			return EncodedPayload{}, fmt.Errorf("%w: wifi", ErrMissingField)
		}
		content, err = encodeWiFi(data.WiFi)
	case TypeSMS:
		if data.SMS == nil {
			return EncodedPayload{}, fmt.Errorf("%w: sms", ErrMissingField)
		}
		content, err = encodeSMS(data.SMS)
	case TypeEmail:
		if data.Email == nil {
			return EncodedPayload{}, fmt.Errorf("%w: email", ErrMissingField)
		}
		content, err = encodeEmail(data.Email)
	case TypePhone:
		if data.Phone == nil || strings.TrimSpace(data.Phone.Number) == "" {
			return EncodedPayload{}, fmt.Errorf("%w: phone number", ErrMissingField)
		}
		content = "tel:" + strings.TrimSpace(data.Phone.Number)
	case TypeLocation:
		if data.Location == nil {
			return EncodedPayload{}, fmt.Errorf("%w: location", ErrMissingField)
		}
		content, err = encodeGeo(data.Location)
	case TypeEvent:
		if data.Event == nil {
			return EncodedPayload{}, fmt.Errorf("%w: event", ErrMissingField)
		}
		content, err = encodeEvent(data.Event)
	case TypeAppDownload:
		if data.App == nil {
			return EncodedPayload{}, fmt.Errorf("%w: app", ErrMissingField)
		}
		content, err = encodeAppDownload(data.App)
	case TypeMultiURL:
		if data.MultiURL == nil {
			return EncodedPayload{}, fmt.Errorf("%w: multi_url", ErrMissingField)
		}
		content, err = encodeMultiURL(data.MultiURL)
	case TypeMenu:
		if data.Menu == nil {
			return EncodedPayload{}, fmt.Errorf("%w: menu", ErrMissingField)
		}
		content, err = encodeMenu(data.Menu)
	case TypePayment:
		if data.Payment == nil {
			return EncodedPayload{}, fmt.Errorf("%w: payment", ErrMissingField)
		}
		content, err = encodePayment(data.Payment)
	case TypePDF:
		content, err = encodeFileRef(data.PDF, "pdf")
	case TypeImage:
		content, err = encodeFileRef(data.Image, "image")
	case TypeVideo:
		content, err = encodeFileRef(data.Video, "video")
	default:
		panic(fmt.Sprintf("qr: unhandled type %q", t))
	}

	if err != nil {
		return EncodedPayload{}, err
	}
	if len(content) > maxContentLength {
		return EncodedPayload{}, fmt.Errorf("%w: %d > %d", ErrLengthExceeded, len(content), maxContentLength)
	}
	return EncodedPayload{Type: t, Content: content}, nil
}

// ValidType reports whether t is one of the supported QR types. Request
// validation uses this so the encoder's switch stays closed.
func ValidType(t QRType) bool {
	switch t {
	case TypeURL, TypeText, TypeVCard, TypeWiFi, TypeSMS, TypeEmail, TypePhone,
		TypeLocation, TypeEvent, TypeAppDownload, TypeMultiURL, TypeMenu,
		TypePayment, TypePDF, TypeImage, TypeVideo:
		return true
	}
	return false
}

func encodeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: url", ErrMissingField)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := sanitizeURL(raw)
	if err != nil {
		return "", err
	}
	if u.Path == "" {
		u.Path = "/"
	}

	normalized := u.String()
	if len(normalized) > maxContentLength {
		return "", fmt.Errorf("%w: url longer than %d characters", ErrLengthExceeded, maxContentLength)
	}
	return normalized, nil
}

func encodeVCard(d *VCardData) (string, error) {
	if d.FirstName == "" && d.LastName == "" {
		return "", fmt.Errorf("%w: vcard first or last name", ErrMissingField)
	}

	esc := textEscaper.Replace
	fullName := strings.TrimSpace(d.FirstName + " " + d.LastName)

	lines := []string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:" + esc(fullName),
		fmt.Sprintf("N:%s;%s;%s;;", esc(d.LastName), esc(d.FirstName), esc(d.MiddleName)),
	}

	if d.Organization != "" {
		lines = append(lines, "ORG:"+esc(d.Organization))
	}
	if d.Title != "" {
		lines = append(lines, "TITLE:"+esc(d.Title))
	}
	if d.Phone != "" {
		lines = append(lines, "TEL;TYPE=VOICE:"+esc(d.Phone))
	}
	if d.Email != "" {
		lines = append(lines, "EMAIL;TYPE=INTERNET:"+esc(d.Email))
	}
	if d.Website != "" {
		lines = append(lines, "URL:"+esc(d.Website))
	}
	if d.Address != "" {
		lines = append(lines, "ADR;TYPE=WORK:;;"+esc(d.Address)+";;;;")
	}
	if d.Birthday != "" {
		lines = append(lines, "BDAY:"+esc(d.Birthday))
	}
	if d.Note != "" {
		lines = append(lines, "NOTE:"+esc(d.Note))
	}

	// Map iteration order is random; sort so identical input yields
	// identical output.
	for _, platform := range sortedKeys(d.SocialProfiles) {
		lines = append(lines, fmt.Sprintf("X-SOCIALPROFILE;TYPE=%s:%s", platform, esc(d.SocialProfiles[platform])))
	}
	for _, key := range sortedKeys(d.CustomFields) {
		name := "X-" + strings.ToUpper(strings.ReplaceAll(key, " ", "-"))
		lines = append(lines, name+":"+esc(d.CustomFields[key]))
	}

	lines = append(lines, "END:VCARD")
	return strings.Join(lines, "\r\n"), nil
}

func encodeWiFi(d *WiFiData) (string, error) {
	if d.SSID == "" {
		return "", fmt.Errorf("%w: wifi ssid", ErrMissingField)
	}

	security := strings.ToUpper(d.Security)
	if security == "" {
		security = "WPA"
	}
	if !validSecurity[security] {
		return "", fmt.Errorf("%w: unknown wifi security %q", ErrInvalidFormat, d.Security)
	}

	password := d.Password
	if security == "NOPASS" {
		password = ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "WIFI:T:%s;S:%s;P:%s;", security, wifiEscaper.Replace(d.SSID), wifiEscaper.Replace(password))
	if d.Hidden {
		b.WriteString("H:true;")
	}
	// The trailing double semicolon is part of the format.
	b.WriteString(";")
	return b.String(), nil
}

func encodeSMS(d *SMSData) (string, error) {
	if strings.TrimSpace(d.Phone) == "" {
		return "", fmt.Errorf("%w: sms phone", ErrMissingField)
	}
	return "SMSTO:" + strings.TrimSpace(d.Phone) + ":" + d.Message, nil
}

func encodeEmail(d *EmailData) (string, error) {
	to := strings.TrimSpace(d.To)
	if to == "" {
		return "", fmt.Errorf("%w: email recipient", ErrMissingField)
	}
	if !strings.Contains(to, "@") {
		return "", fmt.Errorf("%w: email address %q", ErrInvalidFormat, to)
	}

	var params []string
	if d.Subject != "" {
		params = append(params, "subject="+queryEscape(d.Subject))
	}
	if d.Body != "" {
		params = append(params, "body="+queryEscape(d.Body))
	}

	content := "mailto:" + to
	if len(params) > 0 {
		content += "?" + strings.Join(params, "&")
	}
	return content, nil
}

func encodeGeo(d *GeoData) (string, error) {
	if d.Latitude < -90 || d.Latitude > 90 {
		return "", fmt.Errorf("%w: latitude %v out of range", ErrInvalidFormat, d.Latitude)
	}
	if d.Longitude < -180 || d.Longitude > 180 {
		return "", fmt.Errorf("%w: longitude %v out of range", ErrInvalidFormat, d.Longitude)
	}
	return "geo:" + formatFloat(d.Latitude) + "," + formatFloat(d.Longitude), nil
}

func encodeEvent(d *EventData) (string, error) {
	if d.Title == "" {
		return "", fmt.Errorf("%w: event title", ErrMissingField)
	}
	if d.Start == "" {
		return "", fmt.Errorf("%w: event start", ErrMissingField)
	}

	start, err := parseEventTime(d.Start)
	if err != nil {
		return "", err
	}

	esc := textEscaper.Replace
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"BEGIN:VEVENT",
		"SUMMARY:" + esc(d.Title),
		// Floating local time, no TZID or Z suffix.
		"DTSTART:" + start.Format("20060102T150405"),
	}

	if d.End != "" {
		end, err := parseEventTime(d.End)
		if err != nil {
			return "", err
		}
		lines = append(lines, "DTEND:"+end.Format("20060102T150405"))
	}
	if d.Location != "" {
		lines = append(lines, "LOCATION:"+esc(d.Location))
	}
	if d.Description != "" {
		lines = append(lines, "DESCRIPTION:"+esc(d.Description))
	}

	lines = append(lines, "END:VEVENT", "END:VCALENDAR")
	return strings.Join(lines, "\r\n"), nil
}

func parseEventTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: event time %q", ErrInvalidFormat, s)
}

func encodePayment(d *PaymentData) (string, error) {
	switch strings.ToLower(d.Method) {
	case "upi":
		if d.Address == "" {
			return "", fmt.Errorf("%w: upi address", ErrMissingField)
		}
		var b strings.Builder
		b.WriteString("upi://pay?pa=" + queryEscape(d.Address))
		if d.Amount > 0 {
			b.WriteString("&am=" + formatFloat(d.Amount))
		}
		if d.Currency != "" {
			b.WriteString("&cu=" + strings.ToUpper(d.Currency))
		}
		if d.Note != "" {
			b.WriteString("&tn=" + queryEscape(d.Note))
		}
		return b.String(), nil

	case "paypal":
		if d.Address == "" {
			return "", fmt.Errorf("%w: paypal username", ErrMissingField)
		}
		content := "https://paypal.me/" + d.Address
		if d.Amount > 0 {
			content += "/" + formatFloat(d.Amount) + strings.ToUpper(d.Currency)
		}
		return content, nil

	case "crypto":
		if d.Address == "" {
			return "", fmt.Errorf("%w: crypto address", ErrMissingField)
		}
		var params []string
		if d.Amount > 0 {
			params = append(params, "amount="+formatFloat(d.Amount))
		}
		if d.Note != "" {
			params = append(params, "label="+queryEscape(d.Note))
		}
		content := d.Address
		if len(params) > 0 {
			content += "?" + strings.Join(params, "&")
		}
		return content, nil

	case "bank", "bank_transfer":
		if d.AccountNumber == "" {
			return "", fmt.Errorf("%w: bank account number", ErrMissingField)
		}
		payload, err := json.Marshal(struct {
			Kind          string  `json:"kind"`
			AccountName   string  `json:"account_name,omitempty"`
			AccountNumber string  `json:"account_number"`
			BankName      string  `json:"bank_name,omitempty"`
			Amount        float64 `json:"amount,omitempty"`
			Currency      string  `json:"currency,omitempty"`
			Reference     string  `json:"reference,omitempty"`
		}{
			Kind:          "bank_transfer",
			AccountName:   d.AccountName,
			AccountNumber: d.AccountNumber,
			BankName:      d.BankName,
			Amount:        d.Amount,
			Currency:      d.Currency,
			Reference:     d.Reference,
		})
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return string(payload), nil

	default:
		return "", fmt.Errorf("%w: unknown payment method %q", ErrInvalidFormat, d.Method)
	}
}

// The app-download, multi-url and menu kinds are not scanned literally; they
// serialize a JSON envelope consumed by the landing-page resolver.
type landingPayload struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

func encodeAppDownload(d *AppDownloadData) (string, error) {
	if d.AppName == "" {
		return "", fmt.Errorf("%w: app name", ErrMissingField)
	}
	if d.IOSURL == "" && d.AndroidURL == "" && d.FallbackURL == "" {
		return "", fmt.Errorf("%w: app requires at least one store url", ErrMissingField)
	}
	return marshalLanding("app_download", d)
}

func encodeMultiURL(d *MultiURLData) (string, error) {
	if d.Title == "" {
		return "", fmt.Errorf("%w: multi_url title", ErrMissingField)
	}
	if len(d.Links) == 0 {
		return "", fmt.Errorf("%w: multi_url links", ErrMissingField)
	}
	for i, link := range d.Links {
		if strings.TrimSpace(link.URL) == "" {
			return "", fmt.Errorf("%w: multi_url link %d url", ErrMissingField, i)
		}
	}
	return marshalLanding("multi_url", d)
}

func encodeMenu(d *MenuData) (string, error) {
	if d.RestaurantName == "" {
		return "", fmt.Errorf("%w: menu restaurant name", ErrMissingField)
	}
	if len(d.Sections) == 0 {
		return "", fmt.Errorf("%w: menu sections", ErrMissingField)
	}
	return marshalLanding("menu", d)
}

func marshalLanding(kind string, data any) (string, error) {
	payload, err := json.Marshal(landingPayload{Kind: kind, Data: data})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return string(payload), nil
}

func encodeFileRef(d *FileRefData, kind string) (string, error) {
	if d == nil || strings.TrimSpace(d.URL) == "" {
		return "", fmt.Errorf("%w: %s url", ErrMissingField, kind)
	}
	return encodeURL(d.URL)
}

// queryEscape escapes for use inside mailto/upi query strings. Spaces become
// %20 rather than +, which more scanners decode correctly.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
