package main

import (
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256 // pixels

// JoinURL is the address a second device opens to join session sid.
func JoinURL(r *http.Request, sid string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/" + sid
}

// JoinQRCode renders url as a PNG QR code.
func JoinQRCode(url string) ([]byte, error) {
	return qrcode.Encode(url, qrcode.Medium, qrSize)
}
