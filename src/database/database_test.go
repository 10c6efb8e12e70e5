package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taqo-project/taqo/src/config"
	"github.com/taqo-project/taqo/src/models"
)

var errCommand = errors.New("exit status 1")

func TestNew(t *testing.T) {
	lifecycle, err := New(config.DatabaseConfig{})
	require.NoError(t, err)
	assert.IsType(t, External{}, lifecycle)

	lifecycle, err = New(config.DatabaseConfig{Kind: KindCommand})
	require.NoError(t, err)
	assert.IsType(t, &Command{}, lifecycle)

	_, err = New(config.DatabaseConfig{Kind: "docker"})
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestExternal_NoOps(t *testing.T) {
	ctx := context.Background()
	external := External{}

	assert.NoError(t, external.Start(ctx))
	assert.NoError(t, external.SwitchVersion(ctx))
	assert.NoError(t, external.Stop(ctx))
	assert.NoError(t, external.Destroy(ctx))
}

func TestCommand_RunsConfiguredCommands(t *testing.T) {
	command := NewCommand(config.DatabaseConfig{
		Kind:          KindCommand,
		StartCommand:  "yugabyted start",
		SwitchCommand: "switch-version 2.19",
		StopCommand:   "yugabyted stop",
	})
	executed := make([]string, 0)
	command.run = func(_ context.Context, c string) ([]byte, error) {
		executed = append(executed, c)
		return []byte("ok"), nil
	}

	ctx := context.Background()
	require.NoError(t, command.Start(ctx))
	require.NoError(t, command.SwitchVersion(ctx))
	require.NoError(t, command.Stop(ctx))
	require.NoError(t, command.Destroy(ctx))

	assert.Equal(t, []string{"yugabyted start", "switch-version 2.19", "yugabyted stop"}, executed)
}

func TestCommand_Failure(t *testing.T) {
	command := NewCommand(config.DatabaseConfig{Kind: KindCommand, StopCommand: "stop"})
	command.run = func(context.Context, string) ([]byte, error) {
		return []byte("no such cluster"), errCommand
	}

	err := command.Stop(context.Background())
	assert.True(t, errors.Is(err, errCommand))
}

func TestCommand_StartupWaitHonorsContext(t *testing.T) {
	command := NewCommand(config.DatabaseConfig{Kind: KindCommand, StartupWait: 3600})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, command.Start(ctx), context.Canceled)
}

func TestRunShell(t *testing.T) {
	output, err := runShell(context.Background(), "echo started")
	require.NoError(t, err)
	assert.Equal(t, "started\n", string(output))

	_, err = runShell(context.Background(), "exit 3")
	assert.Error(t, err)
}
