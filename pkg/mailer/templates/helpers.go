package templates

import (
	"strings"
	"time"
)

// Brand carries the deployment-specific strings shown in every email.
type Brand struct {
	AppName         string
	InstitutionName string
	SupportURL      string
}

// Option pattern
type Option func(*EmailData)

func WithVerifyURL(url string) Option { return func(d *EmailData) { d.VerifyURL = url } }

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = "on " + utc.Format("02 January 2006, 15:04 MST")
	}
}

// NewBaseEmailData fills the common fields from brand, then applies opts.
func NewBaseEmailData(brand Brand, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:            strings.TrimSpace(name),
		Email:           email,
		RecipientEmail:  email,
		Type:            typ,
		AppName:         brand.AppName,
		InstitutionName: brand.InstitutionName,
		SupportURL:      brand.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewVerifyEmailData(brand Brand, name, email, verifyURL string, expires time.Time) map[string]any {
	d := NewBaseEmailData(brand, VerifyEmail, name, email, WithVerifyURL(verifyURL), WithExpiresAt(expires))
	return ToMap(d)
}

func NewWelcomeData(brand Brand, name, email string) map[string]any {
	return ToMap(NewBaseEmailData(brand, Welcome, name, email))
}
