package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikitaproks/vpn-bot/internal/bot/dialog"
	"github.com/nikitaproks/vpn-bot/internal/bot/events"
	"github.com/nikitaproks/vpn-bot/internal/bot/transport"
	"github.com/nikitaproks/vpn-bot/internal/linode"
	apperrors "github.com/nikitaproks/vpn-bot/internal/shared/errors"
)

func TestSpawn_Entry_PresentsRegions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.router.Handle(ctx, command(1, "spawn"))

	require.Len(t, f.responder.prompts, 1)
	prompt := f.responder.prompts[0]
	assert.Equal(t, msgChooseRegion, prompt.Text)

	// 8 regions two per row plus the Back row.
	require.Len(t, prompt.Rows, 5)
	assert.Equal(t, "DALLAS", prompt.Rows[0][0].Label)
	assert.Equal(t, "us-central", prompt.Rows[0][0].Data)
	assert.Equal(t, ChoiceBack, prompt.Rows[4][0].Data)

	sess := f.sessions.Get(1)
	require.NotNil(t, sess)
	assert.Equal(t, dialog.StateSpawnRegion, sess.State)
}

func TestSpawn_Entry_QuotaRejection(t *testing.T) {
	f := newFixture()
	f.provisioner.instances = ownedInstances(3)

	f.router.Handle(context.Background(), command(1, "spawn"))

	// Always rejected, never leaves Idle.
	assert.Contains(t, f.responder.lastText(), "can't spawn more than 3")
	assert.Nil(t, f.sessions.Get(1))
	assert.Empty(t, f.responder.prompts)
	assert.Empty(t, f.provisioner.created)
}

func TestSpawn_Entry_QuotaIgnoresForeignInstances(t *testing.T) {
	f := newFixture()
	// Foreign infrastructure on the same account does not count.
	f.provisioner.instances = []linode.Instance{
		{ID: 1, Label: "db-primary"},
		{ID: 2, Label: "web-1"},
		{ID: 3, Label: "VPN-BOT-old"}, // prefix match is case-insensitive
	}

	f.router.Handle(context.Background(), command(1, "spawn"))

	require.NotNil(t, f.sessions.Get(1))
	assert.Equal(t, dialog.StateSpawnRegion, f.sessions.Get(1).State)
}

func TestSpawn_Region_BackClearsSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.router.Handle(ctx, command(1, "spawn"))
	promptID := f.responder.prompts[0].MessageID

	f.router.Handle(ctx, choice(1, promptID, "cb-1", ChoiceBack))

	assert.Nil(t, f.sessions.Get(1))
	assert.Equal(t, []int{promptID}, f.responder.removed)
	assert.Empty(t, f.provisioner.created, "backing out must never reach the provisioning service")
	assert.Empty(t, f.provisioner.deleted)
}

func TestSpawn_Region_ChoiceAdvancesToConfirm(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.router.Handle(ctx, command(1, "spawn"))
	promptID := f.responder.prompts[0].MessageID

	f.router.Handle(ctx, choice(1, promptID, "cb-1", "ap-south"))

	sess := f.sessions.Get(1)
	require.NotNil(t, sess)
	assert.Equal(t, dialog.StateSpawnConfirm, sess.State)
	region, ok := sess.Lookup(dialog.KeyRegion)
	assert.True(t, ok)
	assert.Equal(t, "ap-south", region)

	require.Len(t, f.responder.edits, 1)
	assert.Contains(t, f.responder.edits[0].Text, "SINGAPORE")
	assert.Equal(t, confirmRows(), f.responder.edits[0].Rows)
}

func TestSpawn_Confirm_BackReturnsToRegionAndDiscardsChoice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.router.Handle(ctx, command(1, "spawn"))
	promptID := f.responder.prompts[0].MessageID
	f.router.Handle(ctx, choice(1, promptID, "cb-1", "ap-south"))

	f.router.Handle(ctx, choice(1, promptID, "cb-2", ChoiceBack))

	sess := f.sessions.Get(1)
	require.NotNil(t, sess, "Back from Confirm returns to Region, it does not abandon the flow")
	assert.Equal(t, dialog.StateSpawnRegion, sess.State)
	_, ok := sess.Lookup(dialog.KeyRegion)
	assert.False(t, ok, "the previous region choice is discarded")

	lastEdit := f.responder.edits[len(f.responder.edits)-1]
	assert.Equal(t, msgChooseRegion, lastEdit.Text)
}

func TestSpawn_Confirm_CreatesInstance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provisioner.createResp = &linode.Instance{
		ID: 42, Label: "vpn-bot-cb-2", Region: "ap-south", IPv4: []string{"1.2.3.4"},
	}

	f.router.Handle(ctx, command(1, "spawn"))
	promptID := f.responder.prompts[0].MessageID
	f.router.Handle(ctx, choice(1, promptID, "cb-1", "ap-south"))
	f.router.Handle(ctx, choice(1, promptID, "cb-2", ChoiceConfirm))

	// The creation request carries the session's region, a label unique to
	// this confirmation, and the fixed boot parameters.
	require.Len(t, f.provisioner.created, 1)
	created := f.provisioner.created[0]
	assert.Equal(t, linode.Singapore, created.Region)
	assert.Equal(t, "vpn-bot-cb-2", created.Label)
	assert.Equal(t, 12345, created.StackScriptID)
	assert.Equal(t, "hunter2", created.StackScriptData.Password)

	// The user learns the id and addresses, and the session is gone.
	assert.Contains(t, f.responder.lastText(), "42")
	assert.Contains(t, f.responder.lastText(), "1.2.3.4")
	assert.Contains(t, f.responder.lastText(), "3-5 minutes")
	assert.Nil(t, f.sessions.Get(1))

	require.Len(t, f.busEvents, 1)
	assert.Equal(t, events.TypeInstanceCreated, f.busEvents[0].Type)
	assert.Equal(t, 42, f.busEvents[0].InstanceID)

	// A second Confirm press hits no active session and does nothing.
	f.router.Handle(ctx, choice(1, promptID, "cb-3", ChoiceConfirm))
	assert.Len(t, f.provisioner.created, 1)
}

func TestSpawn_Confirm_FailureLeavesSessionForRetry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provisioner.createErr = apperrors.NewProvisionError("create", 500, `{"errors":[]}`, nil)

	f.router.Handle(ctx, command(1, "spawn"))
	promptID := f.responder.prompts[0].MessageID
	f.router.Handle(ctx, choice(1, promptID, "cb-1", "ap-south"))
	f.router.Handle(ctx, choice(1, promptID, "cb-2", ChoiceConfirm))

	assert.Equal(t, msgGenericFailure, f.responder.lastText())
	assert.Empty(t, f.busEvents)

	// Session state is unchanged: the region is still there, so another
	// Confirm press retries the creation.
	sess := f.sessions.Get(1)
	require.NotNil(t, sess)
	assert.Equal(t, dialog.StateSpawnConfirm, sess.State)

	f.provisioner.createErr = nil
	f.provisioner.createResp = &linode.Instance{ID: 7, Region: "ap-south", IPv4: []string{"1.2.3.4"}}
	f.router.Handle(ctx, choice(1, promptID, "cb-3", ChoiceConfirm))

	assert.Len(t, f.provisioner.created, 2)
	assert.Nil(t, f.sessions.Get(1))
}

func TestSpawn_Confirm_MissingRegionIsGenericFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Force the inconsistent state directly: Confirm with no region stored.
	f.sessions.Begin(1, dialog.StateSpawnConfirm)
	f.router.Handle(ctx, choice(1, 1, "cb-1", ChoiceConfirm))

	assert.Equal(t, msgGenericFailure, f.responder.lastText())
	assert.Empty(t, f.provisioner.created)

	// The session is deliberately left in place.
	require.NotNil(t, f.sessions.Get(1))
	assert.Equal(t, dialog.StateSpawnConfirm, f.sessions.Get(1).State)
}

func TestSpawn_ReentryResetsActiveSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.router.Handle(ctx, command(1, "spawn"))
	promptID := f.responder.prompts[0].MessageID
	f.router.Handle(ctx, choice(1, promptID, "cb-1", "ap-south"))
	require.Equal(t, dialog.StateSpawnConfirm, f.sessions.Get(1).State)

	// /spawn mid-flow resets and restarts.
	f.router.Handle(ctx, command(1, "spawn"))

	sess := f.sessions.Get(1)
	require.NotNil(t, sess)
	assert.Equal(t, dialog.StateSpawnRegion, sess.State)
	_, ok := sess.Lookup(dialog.KeyRegion)
	assert.False(t, ok)
}

func TestSpawn_EndToEnd_Singapore(t *testing.T) {
	// /spawn -> SINGAPORE -> confirm -> {id: 42, ipv4: ["1.2.3.4"]}.
	f := newFixture()
	ctx := context.Background()
	f.provisioner.createResp = &linode.Instance{ID: 42, Region: "ap-south", IPv4: []string{"1.2.3.4"}}

	f.router.Handle(ctx, command(1, "spawn"))
	promptID := f.responder.prompts[0].MessageID

	var singapore transport.Choice
	for _, row := range f.responder.prompts[0].Rows {
		for _, c := range row {
			if c.Label == "SINGAPORE" {
				singapore = c
			}
		}
	}
	require.Equal(t, "ap-south", singapore.Data)

	f.router.Handle(ctx, choice(1, promptID, "cb-1", singapore.Data))
	f.router.Handle(ctx, choice(1, promptID, "cb-2", ChoiceConfirm))

	assert.Contains(t, f.responder.lastText(), "42")
	assert.Contains(t, f.responder.lastText(), "1.2.3.4")
	assert.Nil(t, f.sessions.Get(1))
}
