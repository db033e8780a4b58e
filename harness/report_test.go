package harness

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkatest "github.com/kbukum/roundtrip/kafka/testutil"
)

func TestReport_WriteAndRead(t *testing.T) {
	d := kafkatest.NewMockDriver()
	d.SetFaults(kafkatest.Faults{Corrupt: true})
	report, runErr := NewRunner(fastConfig(), &stubCluster{}, nop, WithDriver(d), WithRunID("r9")).Run(context.Background())
	require.Error(t, runErr)

	path := filepath.Join(t.TempDir(), "report.yml")
	require.NoError(t, report.WriteFile(path))

	got, err := ReadReport(path)
	require.NoError(t, err)
	assert.Equal(t, "r9", got.RunID)
	assert.False(t, got.Passed)
	assert.Equal(t, report.Duration, got.Duration)
	assert.Equal(t, report.Message, got.Message)
	require.Len(t, got.Results, 3)
	assert.Len(t, got.Failed(), 3)
	for _, res := range got.Results {
		assert.Equal(t, StateCorrupted, res.State)
		assert.Equal(t, "PAYLOAD_CORRUPTION", res.Code)
		assert.NotEmpty(t, res.Error)
		assert.Nil(t, res.Err)
	}
}

func TestReport_Encode(t *testing.T) {
	r := &Report{RunID: "x", Passed: true, Topic: "test-topic"}
	var buf bytes.Buffer
	require.NoError(t, r.Encode(&buf))
	assert.Contains(t, buf.String(), "run_id: x")
	assert.Contains(t, buf.String(), "passed: true")
	assert.NotContains(t, buf.String(), "publish:")
	assert.Empty(t, r.Failed())
}

func TestReadReport_Missing(t *testing.T) {
	_, err := ReadReport(filepath.Join(t.TempDir(), "none.yml"))
	assert.Error(t, err)
}
