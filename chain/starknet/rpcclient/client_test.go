package rpcclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// handlerFunc answers a single JSON-RPC method with either a result or an error.
type handlerFunc func(params []json.RawMessage) (any, *rpcErrorBody)

// fakeNode is a minimal JSON-RPC server for the Starknet methods under test.
type fakeNode struct {
	mu       sync.Mutex
	handlers map[string]handlerFunc
	requests []rpcRequest
}

func newFakeNode(t *testing.T) (*fakeNode, *Client) {
	t.Helper()

	node := &fakeNode{handlers: map[string]handlerFunc{}}
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	c, err := Dial(t.Context(), srv.URL, logger.Test(t), WithConfirmRetry(5, time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return node, c
}

func (n *fakeNode) handle(method string, fn handlerFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.handlers[method] = fn
}

func (n *fakeNode) calls(method string) []rpcRequest {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []rpcRequest
	for _, r := range n.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}

	return out
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.requests = append(n.requests, req)
	fn, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = rpcErrorBody{Code: -32601, Message: "Method not found"}
	} else if result, rpcErr := fn(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func result(v any) handlerFunc {
	return func([]json.RawMessage) (any, *rpcErrorBody) { return v, nil }
}

func TestClient_ChainID(t *testing.T) {
	t.Parallel()

	node, c := newFakeNode(t)
	node.handle("starknet_chainId", result("0x534e5f5345504f4c4941"))

	got, err := c.ChainID(t.Context())
	require.NoError(t, err)
	assert.Equal(t, starknet.ChainIDSepolia, got)
}

func TestClient_Nonce(t *testing.T) {
	t.Parallel()

	node, c := newFakeNode(t)
	node.handle("starknet_getNonce", result("0x7"))

	got, err := c.Nonce(t.Context(), starknet.MustParseFelt("0xabc"))
	require.NoError(t, err)
	assert.Equal(t, "0x7", got.String())

	reqs := node.calls("starknet_getNonce")
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Params, 2)
	assert.JSONEq(t, `"pending"`, string(reqs[0].Params[0]))
	assert.JSONEq(t, `"0xabc"`, string(reqs[0].Params[1]))
}

func TestClient_Class(t *testing.T) {
	t.Parallel()

	node, c := newFakeNode(t)
	node.handle("starknet_getClass", result(map[string]any{
		"abi":                    `[{"type":"constructor","name":"constructor","inputs":[]}]`,
		"contract_class_version": "0.1.0",
	}))

	class, err := c.Class(t.Context(), starknet.MustParseFelt("0x1234"))
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", class.ContractClassVersion)

	var abi string
	require.NoError(t, json.Unmarshal(class.ABI, &abi))
	assert.Contains(t, abi, "constructor")
}

func TestClient_EstimateFee(t *testing.T) {
	t.Parallel()

	node, c := newFakeNode(t)
	node.handle("starknet_estimateFee", result([]map[string]any{{
		"l1_gas_consumed":      "0x10",
		"l1_gas_price":         "0x2",
		"l2_gas_consumed":      "0x100",
		"l2_gas_price":         "0x1",
		"l1_data_gas_consumed": "0x4",
		"l1_data_gas_price":    "0x3",
		"overall_fee":          "0x12c",
		"unit":                 "FRI",
	}}))

	tx := &starknet.InvokeTxnV3{
		SenderAddress: starknet.MustParseFelt("0xabc"),
		Nonce:         starknet.FeltFromUint64(0),
		Query:         true,
	}
	est, err := c.EstimateFee(t.Context(), tx)
	require.NoError(t, err)
	assert.Equal(t, "FRI", est.Unit)
	assert.Equal(t, "0x100", est.L2GasConsumed.String())

	reqs := node.calls("starknet_estimateFee")
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Params, 3)
	assert.JSONEq(t, `["SKIP_VALIDATE"]`, string(reqs[0].Params[1]))
	assert.Contains(t, string(reqs[0].Params[0]), `"version":"0x100000000000000000000000000000003"`)
}

func TestClient_AddInvokeTransaction(t *testing.T) {
	t.Parallel()

	node, c := newFakeNode(t)
	node.handle("starknet_addInvokeTransaction", result(map[string]any{"transaction_hash": "0xfeed"}))

	hash, err := c.AddInvokeTransaction(t.Context(), &starknet.InvokeTxnV3{
		SenderAddress: starknet.MustParseFelt("0xabc"),
		Nonce:         starknet.FeltFromUint64(1),
		Signature:     []*felt.Felt{starknet.FeltFromUint64(1), starknet.FeltFromUint64(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", hash.String())

	reqs := node.calls("starknet_addInvokeTransaction")
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Params, 1)
	assert.Contains(t, string(reqs[0].Params[0]), `"type":"INVOKE"`)
	assert.Contains(t, string(reqs[0].Params[0]), `"signature":["0x1","0x2"]`)
}

func TestClient_ErrorClassification(t *testing.T) {
	t.Parallel()

	t.Run("json-rpc error", func(t *testing.T) {
		t.Parallel()

		node, c := newFakeNode(t)
		node.handle("starknet_getClass", func([]json.RawMessage) (any, *rpcErrorBody) {
			return nil, &rpcErrorBody{Code: starknet.CodeClassHashNotFound, Message: "Class hash not found"}
		})

		_, err := c.Class(t.Context(), starknet.MustParseFelt("0x1"))
		require.Error(t, err)
		assert.True(t, starknet.IsRPCErrorCode(err, starknet.CodeClassHashNotFound))
		assert.False(t, starknet.IsTransient(err))
	})

	t.Run("server error is transient", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)

		c, err := Dial(t.Context(), srv.URL, logger.Test(t))
		require.NoError(t, err)

		_, err = c.ChainID(t.Context())
		require.Error(t, err)
		assert.True(t, starknet.IsTransient(err))
	})

	t.Run("client error is not transient", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		t.Cleanup(srv.Close)

		c, err := Dial(t.Context(), srv.URL, logger.Test(t))
		require.NoError(t, err)

		_, err = c.ChainID(t.Context())
		require.Error(t, err)
		assert.False(t, starknet.IsTransient(err))
	})

	t.Run("unreachable endpoint is transient", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c, err := Dial(t.Context(), url, logger.Test(t))
		require.NoError(t, err)

		_, err = c.ChainID(t.Context())
		require.Error(t, err)
		assert.True(t, starknet.IsTransient(err))
	})
}

func statusSequence(statuses ...map[string]any) handlerFunc {
	var mu sync.Mutex
	i := 0

	return func([]json.RawMessage) (any, *rpcErrorBody) {
		mu.Lock()
		defer mu.Unlock()

		s := statuses[min(i, len(statuses)-1)]
		i++

		return s, nil
	}
}

func TestClient_WaitForAcceptance(t *testing.T) {
	t.Parallel()

	txHash := starknet.MustParseFelt("0xfeed")
	receipt := map[string]any{
		"transaction_hash": "0xfeed",
		"actual_fee":       map[string]any{"amount": "0x64", "unit": "FRI"},
		"execution_status": "SUCCEEDED",
		"finality_status":  "ACCEPTED_ON_L2",
		"block_number":     12,
		"events": []map[string]any{{
			"from_address": starknet.UniversalDeployerAddress.String(),
			"keys":         []string{starknet.ContractDeployedSelector.String()},
			"data":         []string{"0x777"},
		}},
	}

	tests := []struct {
		name       string
		statuses   []map[string]any
		receipt    map[string]any
		wantStatus string
		wantErr    string
	}{
		{
			name: "accepted after polling",
			statuses: []map[string]any{
				{"finality_status": "RECEIVED"},
				{"finality_status": "RECEIVED"},
				{"finality_status": "ACCEPTED_ON_L2", "execution_status": "SUCCEEDED"},
			},
			receipt: receipt,
		},
		{
			name:       "rejected",
			statuses:   []map[string]any{{"finality_status": "REJECTED", "failure_reason": "invalid signature"}},
			wantStatus: starknet.StatusRejected,
			wantErr:    "invalid signature",
		},
		{
			name:     "reverted",
			statuses: []map[string]any{{"finality_status": "ACCEPTED_ON_L2", "execution_status": "REVERTED"}},
			receipt: map[string]any{
				"transaction_hash": "0xfeed",
				"execution_status": "REVERTED",
				"finality_status":  "ACCEPTED_ON_L2",
				"revert_reason":    "Class with hash 0x1234 is not declared",
			},
			wantStatus: starknet.StatusReverted,
			wantErr:    "not declared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			node, c := newFakeNode(t)
			node.handle("starknet_getTransactionStatus", statusSequence(tt.statuses...))
			if tt.receipt != nil {
				node.handle("starknet_getTransactionReceipt", result(tt.receipt))
			}

			got, err := c.WaitForAcceptance(t.Context(), txHash)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				if tt.wantStatus != "" {
					var rejected *starknet.TxRejectedError
					require.ErrorAs(t, err, &rejected)
					assert.Equal(t, tt.wantStatus, rejected.Status)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, uint64(12), got.BlockNumber)
			addr, ok := starknet.DeployedAddressFromEvents(got.Events)
			require.True(t, ok)
			assert.Equal(t, "0x777", addr.String())
			assert.Len(t, node.calls("starknet_getTransactionStatus"), 3)
		})
	}
}

func TestClient_WaitForAcceptance_RetriesUnknownHash(t *testing.T) {
	t.Parallel()

	node, c := newFakeNode(t)
	var mu sync.Mutex
	calls := 0
	node.handle("starknet_getTransactionStatus", func([]json.RawMessage) (any, *rpcErrorBody) {
		mu.Lock()
		defer mu.Unlock()

		calls++
		if calls == 1 {
			return nil, &rpcErrorBody{Code: starknet.CodeTxHashNotFound, Message: "Transaction hash not found"}
		}

		return map[string]any{"finality_status": "ACCEPTED_ON_L1", "execution_status": "SUCCEEDED"}, nil
	})
	node.handle("starknet_getTransactionReceipt", result(map[string]any{
		"transaction_hash": "0xfeed",
		"execution_status": "SUCCEEDED",
		"finality_status":  "ACCEPTED_ON_L1",
	}))

	got, err := c.WaitForAcceptance(t.Context(), starknet.MustParseFelt("0xfeed"))
	require.NoError(t, err)
	assert.Equal(t, starknet.StatusAcceptedOnL1, got.FinalityStatus)
}

func TestClient_WaitForAcceptance_Timeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		handler      handlerFunc
		wantErr      string
		wantNotFound bool
	}{
		{
			name:    "status stays received",
			handler: result(map[string]any{"finality_status": "RECEIVED"}),
			wantErr: "status: RECEIVED",
		},
		{
			name: "hash stays unknown",
			handler: func([]json.RawMessage) (any, *rpcErrorBody) {
				return nil, &rpcErrorBody{Code: starknet.CodeTxHashNotFound, Message: "Transaction hash not found"}
			},
			wantErr:      "Transaction hash not found",
			wantNotFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			node, c := newFakeNode(t)
			node.handle("starknet_getTransactionStatus", tt.handler)

			_, err := c.WaitForAcceptance(t.Context(), starknet.MustParseFelt("0xfeed"))
			require.ErrorContains(t, err, tt.wantErr)
			require.ErrorIs(t, err, starknet.ErrAcceptanceTimeout)
			assert.True(t, starknet.IsTransient(err), "a pending transaction may still be accepted")
			assert.Equal(t, tt.wantNotFound, starknet.IsRPCErrorCode(err, starknet.CodeTxHashNotFound))

			var rejected *starknet.TxRejectedError
			assert.False(t, errors.As(err, &rejected))
			assert.Len(t, node.calls("starknet_getTransactionStatus"), 5)
			assert.Empty(t, node.calls("starknet_getTransactionReceipt"))
		})
	}
}
