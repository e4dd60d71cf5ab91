package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmut/wasmut/internal/result"
)

func TestClassify(t *testing.T) {
	require.Equal(t, result.Alive, Classify(RunResult{Exited: true, ExitCode: 0}))
	require.Equal(t, result.Killed, Classify(RunResult{Exited: true, ExitCode: 1}))
	require.Equal(t, result.Timeout, Classify(RunResult{OutOfFuel: true, Trapped: true}))
	require.Equal(t, result.Error, Classify(RunResult{Trapped: true, TrapMessage: "unreachable"}))
}
