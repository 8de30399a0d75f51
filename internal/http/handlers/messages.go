package handlers

import (
	"net/http"

	"docconvert/internal/middleware"
)

// User-facing rejection messages, keyed by message id then locale.
// English is the fallback for locales without a translation.
var messages = map[string]map[string]string{
	"invalid_mode": {
		"en": "invalid conversion mode",
		"id": "mode konversi tidak valid",
	},
	"no_file": {
		"en": "no file provided",
		"id": "tidak ada file yang diunggah",
	},
	"invalid_file_type": {
		"en": "invalid file type",
		"id": "jenis file tidak valid",
	},
	"invalid_file_format": {
		"en": "invalid file format",
		"id": "format file tidak valid",
	},
	"empty_file": {
		"en": "uploaded file is empty",
		"id": "file yang diunggah kosong",
	},
	"file_too_large": {
		"en": "file exceeds the maximum allowed size",
		"id": "file melebihi ukuran maksimum",
	},
	"quota_exceeded": {
		"en": "conversion quota exceeded",
		"id": "kuota konversi habis",
	},
	"conversion_timeout": {
		"en": "conversion took too long and was aborted",
		"id": "konversi terlalu lama dan dibatalkan",
	},
	"conversion_failed": {
		"en": "conversion failed",
		"id": "konversi gagal",
	},
	"payment_unavailable": {
		"en": "payment service unavailable",
		"id": "layanan pembayaran tidak tersedia",
	},
}

func (a *App) msg(r *http.Request, key string) string {
	byLocale, ok := messages[key]
	if !ok {
		return key
	}
	if m, ok := byLocale[middleware.LocaleFromContext(r.Context())]; ok {
		return m
	}
	return byLocale["en"]
}
