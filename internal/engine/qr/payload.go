package qr

type QRType string

const (
	TypeURL         QRType = "url"
	TypeText        QRType = "text"
	TypeVCard       QRType = "vcard"
	TypeWiFi        QRType = "wifi"
	TypeSMS         QRType = "sms"
	TypeEmail       QRType = "email"
	TypePhone       QRType = "phone"
	TypeLocation    QRType = "location"
	TypeEvent       QRType = "event"
	TypeAppDownload QRType = "app_download"
	TypeMultiURL    QRType = "multi_url"
	TypeMenu        QRType = "menu"
	TypePayment     QRType = "payment"
	TypePDF         QRType = "pdf"
	TypeImage       QRType = "image"
	TypeVideo       QRType = "video"
)

type Mode string

const (
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// Payload is a closed union over the supported content kinds. Exactly one
// field matching Request.Type must be set.
type Payload struct {
	URL      *URLData         `json:"url,omitempty"`
	Text     *TextData        `json:"text,omitempty"`
	VCard    *VCardData       `json:"vcard,omitempty"`
	WiFi     *WiFiData        `json:"wifi,omitempty"`
	SMS      *SMSData         `json:"sms,omitempty"`
	Email    *EmailData       `json:"email,omitempty"`
	Phone    *PhoneData       `json:"phone,omitempty"`
	Location *GeoData         `json:"location,omitempty"`
	Event    *EventData       `json:"event,omitempty"`
	App      *AppDownloadData `json:"app,omitempty"`
	MultiURL *MultiURLData    `json:"multi_url,omitempty"`
	Menu     *MenuData        `json:"menu,omitempty"`
	Payment  *PaymentData     `json:"payment,omitempty"`
	PDF      *FileRefData     `json:"pdf,omitempty"`
	Image    *FileRefData     `json:"image,omitempty"`
	Video    *FileRefData     `json:"video,omitempty"`
}

type URLData struct {
	URL string `json:"url"`
}

type TextData struct {
	Content string `json:"content"`
}

type VCardData struct {
	FirstName      string            `json:"first_name,omitempty"`
	LastName       string            `json:"last_name,omitempty"`
	MiddleName     string            `json:"middle_name,omitempty"`
	Organization   string            `json:"organization,omitempty"`
	Title          string            `json:"title,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Email          string            `json:"email,omitempty"`
	Website        string            `json:"website,omitempty"`
	Address        string            `json:"address,omitempty"`
	Birthday       string            `json:"birthday,omitempty"`
	Note           string            `json:"note,omitempty"`
	SocialProfiles map[string]string `json:"social_profiles,omitempty"`
	CustomFields   map[string]string `json:"custom_fields,omitempty"`
}

type WiFiData struct {
	SSID     string `json:"ssid"`
	Password string `json:"password,omitempty"`
	Security string `json:"security,omitempty"` // WEP, WPA, WPA2, WPA3, nopass
	Hidden   bool   `json:"hidden,omitempty"`
}

type SMSData struct {
	Phone   string `json:"phone"`
	Message string `json:"message,omitempty"`
}

type EmailData struct {
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

type PhoneData struct {
	Number string `json:"number"`
}

type GeoData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type EventData struct {
	Title       string `json:"title"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`         // RFC 3339 or YYYY-MM-DDTHH:MM:SS
	End         string `json:"end,omitempty"` // same formats as Start
}

type AppDownloadData struct {
	AppName     string `json:"app_name"`
	IOSURL      string `json:"ios_url,omitempty"`
	AndroidURL  string `json:"android_url,omitempty"`
	FallbackURL string `json:"fallback_url,omitempty"`
}

type MultiURLData struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Links       []LinkItem `json:"links"`
}

type LinkItem struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

type MenuData struct {
	RestaurantName string        `json:"restaurant_name"`
	Sections       []MenuSection `json:"sections"`
}

type MenuSection struct {
	Name  string     `json:"name"`
	Items []MenuItem `json:"items,omitempty"`
}

type MenuItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Currency    string  `json:"currency,omitempty"`
}

type PaymentData struct {
	Method        string  `json:"method"` // upi, paypal, crypto, bank
	Address       string  `json:"address,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Note          string  `json:"note,omitempty"`
	AccountName   string  `json:"account_name,omitempty"`
	AccountNumber string  `json:"account_number,omitempty"`
	BankName      string  `json:"bank_name,omitempty"`
	Reference     string  `json:"reference,omitempty"`
}

type FileRefData struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

type ECCLevel string

const (
	ECCLow      ECCLevel = "L"
	ECCMedium   ECCLevel = "M"
	ECCQuartile ECCLevel = "Q"
	ECCHigh     ECCLevel = "H"
)

type LogoPosition string

const (
	LogoCenter      LogoPosition = "center"
	LogoTopLeft     LogoPosition = "top-left"
	LogoTopRight    LogoPosition = "top-right"
	LogoBottomLeft  LogoPosition = "bottom-left"
	LogoBottomRight LogoPosition = "bottom-right"
)

type LogoOptions struct {
	URL            string       `json:"url"`
	MaxSizePercent int          `json:"max_size_percent,omitempty"` // clamped to 20
	Position       LogoPosition `json:"position,omitempty"`
}

type StyleOptions struct {
	Size            int          `json:"size,omitempty"`
	ErrorCorrection ECCLevel     `json:"error_correction,omitempty"`
	Format          string       `json:"format,omitempty"` // png, svg
	Foreground      string       `json:"foreground,omitempty"`
	Background      string       `json:"background,omitempty"`
	Logo            *LogoOptions `json:"logo,omitempty"`
}

// Request is a single generation request.
type Request struct {
	Type  QRType       `json:"type"`
	Mode  Mode         `json:"mode,omitempty"`
	Data  Payload      `json:"data"`
	Style StyleOptions `json:"style,omitempty"`
	Label string       `json:"label,omitempty"`
}

// EncodedPayload is the immutable output of the encoding step.
type EncodedPayload struct {
	Type    QRType
	Content string
}

// GenerationResult is assembled by the orchestrator and never mutated after
// construction.
type GenerationResult struct {
	ID        string `json:"id"`
	ImageRef  string `json:"image_ref"`
	ShortURL  string `json:"short_url,omitempty"` // present iff mode = dynamic
	Version   int    `json:"version"`
	Modules   int    `json:"modules"`
	ByteSize  int    `json:"byte_size"`
	CreatedAt int64  `json:"created_at"`
}
