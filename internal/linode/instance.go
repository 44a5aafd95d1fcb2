package linode

import (
	"fmt"
	"strings"
)

// Instance is a provisioned virtual machine record as returned by the API.
// Only the fields the bot needs are mapped.
type Instance struct {
	ID     int      `json:"id"`
	Label  string   `json:"label"`
	Region string   `json:"region"`
	IPv4   []string `json:"ipv4"`
}

// String renders the instance for chat listings.
func (i Instance) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID:        %d\n", i.ID)
	fmt.Fprintf(&b, "Label:     %s\n", i.Label)
	fmt.Fprintf(&b, "Region:    %s\n", i.Region)
	fmt.Fprintf(&b, "IP:        %s", strings.Join(i.IPv4, ", "))
	return b.String()
}

// HasLabelPrefix reports whether the instance label carries the given
// prefix, case-insensitively. Used to tell bot-owned instances apart from
// other infrastructure on the same account.
func (i Instance) HasLabelPrefix(prefix string) bool {
	return strings.HasPrefix(strings.ToLower(i.Label), strings.ToLower(prefix))
}

// ShadowsocksParams are the StackScript parameters baked into every created
// instance. Everything but the password is fixed.
type ShadowsocksParams struct {
	ServerPort int    `json:"SERVER_PORT"`
	LocalPort  int    `json:"LOCAL_PORT"`
	Timeout    int    `json:"TIMEOUT"`
	Method     string `json:"METHOD"`
	Password   string `json:"PASSWORD"`
}

// NewShadowsocksParams returns the default parameter set with the given
// shared password.
func NewShadowsocksParams(password string) ShadowsocksParams {
	return ShadowsocksParams{
		ServerPort: 8388,
		LocalPort:  1080,
		Timeout:    600,
		Method:     "chacha20-ietf-poly1305",
		Password:   password,
	}
}
