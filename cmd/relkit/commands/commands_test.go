package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziplock/relkit/cmd/relkit/commands"
	"github.com/ziplock/relkit/internal/adapters/config"
	"github.com/ziplock/relkit/internal/app"
	"github.com/ziplock/relkit/internal/core/domain"
	"github.com/ziplock/relkit/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func setupCLI(t *testing.T) (*commands.CLI, *mocks.MockProber) {
	t.Helper()
	ctrl := gomock.NewController(t)

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Complete(gomock.Any()).AnyTimes()
	telemetry := mocks.NewMockTelemetry(ctrl)
	telemetry.EXPECT().Record(gomock.Any()).Return(vertex).AnyTimes()

	prober := mocks.NewMockProber(ctrl)

	a := app.New(&config.Loader{}, logger, telemetry,
		mocks.NewMockRunner(ctrl), prober, mocks.NewMockInspector(ctrl))
	return commands.New(a), prober
}

func TestExecute_BuildUnknownPlatform(t *testing.T) {
	cli, _ := setupCLI(t)
	cli.SetArgs([]string{"build", "-p", "macos"})

	err := cli.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfig))
}

func TestExecute_BuildUnknownProfile(t *testing.T) {
	cli, _ := setupCLI(t)
	cli.SetArgs([]string{"build", "--profile", "turbo"})

	err := cli.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfig))
}

func TestExecute_TestWithoutCargo(t *testing.T) {
	cli, prober := setupCLI(t)
	prober.EXPECT().Probe(gomock.Any(), "cargo").Return(domain.ToolProbe{Tool: "cargo"})

	cli.SetArgs([]string{"test"})
	err := cli.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrToolMissing))
}

// Every verb accepts --skip-tests; the unknown platform proves parsing
// got past the flags. For release the flag also has to suppress the
// test stage: the prober mock has no expectations, so probing for
// cargo would fail the test.
func TestExecute_SkipTestsAcceptedByEveryVerb(t *testing.T) {
	for _, verb := range []string{"build", "package", "release"} {
		cli, _ := setupCLI(t)
		cli.SetArgs([]string{verb, "--skip-tests", "-p", "macos"})

		err := cli.Execute(context.Background())
		require.Error(t, err, verb)
		assert.True(t, errors.Is(err, domain.ErrConfig), verb)
	}

	cli, prober := setupCLI(t)
	prober.EXPECT().Probe(gomock.Any(), "cargo").Return(domain.ToolProbe{Tool: "cargo"})
	cli.SetArgs([]string{"test", "--skip-tests"})

	err := cli.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrToolMissing))
}

func TestExecute_UnknownFlag(t *testing.T) {
	cli, _ := setupCLI(t)
	cli.SetArgs([]string{"build", "--frobnicate"})

	require.Error(t, cli.Execute(context.Background()))
}
