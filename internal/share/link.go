package share

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rocketscienceinc/tictactoe-peer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
)

const (
	paramCode   = "code"
	paramMethod = "method"

	inviteTitle = "Join my Tic Tac Toe game!"
)

// Link - what a share locator carries.
type Link struct {
	Code   string
	Method entity.Method
}

// Invite - payload handed to whatever shares it (clipboard, share sheet, terminal).
type Invite struct {
	Title string
	Text  string
	URL   string
}

// BuildURL - base?code=XXXX&method=webrtc. Existing query fields of base are kept.
func BuildURL(base, code string, method entity.Method) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperror.ErrMalformedLink, err)
	}

	if method == entity.MethodNone {
		method = entity.MethodWebRTC
	}

	query := u.Query()
	query.Set(paramCode, code)
	query.Set(paramMethod, string(method))
	u.RawQuery = encodeQuery(query)

	return u.String(), nil
}

// ParseURL - reports false when raw carries no code.
func ParseURL(raw string) (Link, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Link{}, false
	}

	query := u.Query()

	code := strings.ToUpper(strings.TrimSpace(query.Get(paramCode)))
	if code == "" {
		return Link{}, false
	}

	method := entity.Method(strings.ToLower(strings.TrimSpace(query.Get(paramMethod))))
	if method == entity.MethodNone {
		method = entity.MethodWebRTC
	}

	return Link{Code: code, Method: method}, true
}

// ClearURL - drops code and method so a consumed link does not fire again.
func ClearURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	query := u.Query()
	query.Del(paramCode)
	query.Del(paramMethod)
	u.RawQuery = encodeQuery(query)

	return u.String()
}

func NewInvite(base, code string, method entity.Method) (Invite, error) {
	link, err := BuildURL(base, code, method)
	if err != nil {
		return Invite{}, err
	}

	return Invite{
		Title: inviteTitle,
		Text:  fmt.Sprintf("%s Code: %s\n%s", inviteTitle, code, link),
		URL:   link,
	}, nil
}

// encodeQuery - code first, then method, then anything else in key order.
func encodeQuery(query url.Values) string {
	var parts []string
	for _, key := range []string{paramCode, paramMethod} {
		if value := query.Get(key); value != "" {
			parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(value))
		}
	}

	rest := url.Values{}
	for key, values := range query {
		if key != paramCode && key != paramMethod {
			rest[key] = values
		}
	}

	if encoded := rest.Encode(); encoded != "" {
		parts = append(parts, encoded)
	}

	return strings.Join(parts, "&")
}
