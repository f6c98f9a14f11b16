package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTransfer(t *testing.T) {
	before := testutil.ToFloat64(transferBytes.WithLabelValues("put"))
	beforeOK := testutil.ToFloat64(transfersTotal.WithLabelValues("put", "success"))
	beforeErr := testutil.ToFloat64(transfersTotal.WithLabelValues("put", "error"))

	RecordTransfer("put", 128, true)
	RecordTransfer("put", 0, false)

	assert.Equal(t, before+128, testutil.ToFloat64(transferBytes.WithLabelValues("put")))
	assert.Equal(t, beforeOK+1, testutil.ToFloat64(transfersTotal.WithLabelValues("put", "success")))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(transfersTotal.WithLabelValues("put", "error")))
}

func TestRecordLeaseWait(t *testing.T) {
	beforeTimeouts := testutil.ToFloat64(leaseTimeoutsTotal)
	beforePolls := testutil.ToFloat64(leasePollsTotal)

	RecordLeasePoll()
	RecordLeasePoll()
	RecordLeaseWait(2*time.Second, false)
	RecordLeaseWait(60*time.Second, true)

	assert.Equal(t, beforePolls+2, testutil.ToFloat64(leasePollsTotal))
	assert.Equal(t, beforeTimeouts+1, testutil.ToFloat64(leaseTimeoutsTotal))
}

func TestRecordCommandAndRemote(t *testing.T) {
	before := testutil.ToFloat64(commandsTotal.WithLabelValues("ls", "success"))
	RecordCommand("ls", time.Millisecond, true)
	assert.Equal(t, before+1, testutil.ToFloat64(commandsTotal.WithLabelValues("ls", "success")))

	beforeRemote := testutil.ToFloat64(remoteOperationsTotal.WithLabelValues("webhdfs", "LISTSTATUS", "error"))
	RecordRemoteOperation("webhdfs", "LISTSTATUS", time.Millisecond, false)
	assert.Equal(t, beforeRemote+1, testutil.ToFloat64(remoteOperationsTotal.WithLabelValues("webhdfs", "LISTSTATUS", "error")))
}

func TestListen(t *testing.T) {
	RecordCommand("help", time.Millisecond, true)

	s, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `hdfsh_commands_total{command="help",status="success"}`)
}

func TestListen_BadAddress(t *testing.T) {
	_, err := Listen("not-an-address")
	require.Error(t, err)
}
