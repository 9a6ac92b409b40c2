package domain

// Default user-facing messages per failure kind. Upstream-supplied messages
// always win; these only fill the gap when upstream said nothing useful.
var defaultMessages = map[string]map[Kind]string{
	"en": {
		KindValidation: "invalid request",
		KindAuth:       "invalid or missing credential",
		KindUpstream:   "video service unavailable",
		KindMalformed:  "unexpected response from video service",
		KindTimeout:    "video generation timed out",
		KindNetwork:    "could not reach video service",
	},
	"id": {
		KindValidation: "permintaan tidak valid",
		KindAuth:       "kredensial tidak valid atau tidak ada",
		KindUpstream:   "layanan video tidak tersedia",
		KindMalformed:  "respons tak terduga dari layanan video",
		KindTimeout:    "pembuatan video melebihi batas waktu",
		KindNetwork:    "tidak dapat menghubungi layanan video",
	},
}

// DefaultMessage returns the fallback message for a kind in the given locale.
// Unknown locales fall back to English.
func DefaultMessage(kind Kind, locale string) string {
	catalog, ok := defaultMessages[locale]
	if !ok {
		catalog = defaultMessages["en"]
	}
	if msg, ok := catalog[kind]; ok {
		return msg
	}
	return defaultMessages["en"][KindUpstream]
}

// UserMessage resolves the message shown to clients: the error's own message
// when present, otherwise the locale default for its kind.
func UserMessage(e *Error, locale string) string {
	if e == nil {
		return DefaultMessage(KindUpstream, locale)
	}
	if e.Message != "" {
		return e.Message
	}
	return DefaultMessage(e.Kind, locale)
}
