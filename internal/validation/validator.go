package validation

import (
	"errors"
	"net/mail"
	"net/url"
	"path"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidObjectID = errors.New("invalid object ID format")
	ErrEmptyField      = errors.New("required field is empty")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidImageURL = errors.New("invalid image URL")
)

// Extensions accepted for image references on hosts outside the allowlist.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".bmp":  true,
	".avif": true,
}

// ParseObjectID checks if string is a valid MongoDB ObjectID and returns it
func ParseObjectID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NilObjectID, ErrEmptyField
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidObjectID
	}
	return objectID, nil
}

// ValidateEmail requires a bare address such as "ana@example.com".
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmptyField
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}

	at := strings.LastIndex(email, "@")
	if !strings.Contains(email[at+1:], ".") {
		return ErrInvalidEmail
	}
	return nil
}

// ImageURLValidator accepts http(s) URLs that either live on an allowed
// image host or end in a known image extension.
type ImageURLValidator struct {
	hosts map[string]bool
}

func NewImageURLValidator(allowedHosts []string) *ImageURLValidator {
	hosts := make(map[string]bool, len(allowedHosts))
	for _, h := range allowedHosts {
		hosts[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return &ImageURLValidator{hosts: hosts}
}

// AllowHost adds a host, e.g. the public endpoint of the upload store.
func (v *ImageURLValidator) AllowHost(host string) {
	if host != "" {
		v.hosts[strings.ToLower(host)] = true
	}
}

func (v *ImageURLValidator) Validate(raw string) error {
	if raw == "" {
		return ErrEmptyField
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidImageURL
	}

	if v.hosts[strings.ToLower(u.Hostname())] || v.hosts[strings.ToLower(u.Host)] {
		return nil
	}

	if imageExtensions[strings.ToLower(path.Ext(u.Path))] {
		return nil
	}
	return ErrInvalidImageURL
}
