// Package workflow implements the conversational state machines that drive
// instance creation and deletion through region/instance selection and a
// yes/no confirmation step.
package workflow

import (
	"context"

	"github.com/nikitaproks/vpn-bot/internal/bot/transport"
	"github.com/nikitaproks/vpn-bot/internal/linode"
)

// Choice payloads shared by all prompts. Everything else on a keyboard is a
// region code or an instance ID.
const (
	ChoiceBack    = "back"
	ChoiceConfirm = "confirm"
)

// User-facing copy.
const (
	msgGenericFailure  = "Something went wrong!"
	msgChooseRegion    = "Choose region"
	msgChooseDelete    = "Choose server to delete"
	msgNothingToDelete = "Nothing to delete: no servers are running."
	listHeader         = "Servers:\n\n"
)

// Config carries the fixed provisioning parameters of both workflows.
type Config struct {
	// LabelPrefix distinguishes bot-owned instances from other
	// infrastructure on the same account.
	LabelPrefix string

	// MaxInstances is the client-side quota enforced on /spawn.
	MaxInstances int

	// StackScriptID is the provider-side boot script run on first boot.
	StackScriptID int

	// Image and Plan override the provisioning defaults when set.
	Image string
	Plan  string

	// ShadowsocksPassword is the tunnel password baked into every
	// created instance.
	ShadowsocksPassword string
}

// Provisioner is the provisioning service surface the workflows need.
// *linode.Client satisfies it.
type Provisioner interface {
	CreateInstance(ctx context.Context, opts linode.CreateOpts) (*linode.Instance, error)
	ListInstances(ctx context.Context) ([]linode.Instance, error)
	DeleteInstance(ctx context.Context, id int) error
}

// filterOwned keeps the instances whose label carries the bot's prefix.
func filterOwned(instances []linode.Instance, prefix string) []linode.Instance {
	var owned []linode.Instance
	for _, instance := range instances {
		if instance.HasLabelPrefix(prefix) {
			owned = append(owned, instance)
		}
	}
	return owned
}

// confirmRows is the yes/no keyboard used by both confirmation steps.
func confirmRows() [][]transport.Choice {
	return [][]transport.Choice{{
		{Label: "Confirm", Data: ChoiceConfirm},
		{Label: "Back", Data: ChoiceBack},
	}}
}

// regionRows lays out the region keyboard two per row with Back on its own
// row.
func regionRows() [][]transport.Choice {
	regions := linode.Regions()
	rows := make([][]transport.Choice, 0, len(regions)/2+1)
	for i := 0; i < len(regions); i += 2 {
		row := []transport.Choice{{Label: regions[i].Name(), Data: regions[i].Code()}}
		if i+1 < len(regions) {
			row = append(row, transport.Choice{Label: regions[i+1].Name(), Data: regions[i+1].Code()})
		}
		rows = append(rows, row)
	}
	rows = append(rows, []transport.Choice{{Label: "Back", Data: ChoiceBack}})
	return rows
}
