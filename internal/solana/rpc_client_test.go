package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func rpcTestServer(t *testing.T, method string, result interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != method {
			t.Errorf("expected method %s, got %s", method, req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPClient_GetAccountInfo(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
	server := rpcTestServer(t, "getAccountInfo", map[string]interface{}{
		"value": map[string]interface{}{
			"lamports":   uint64(5000000),
			"owner":      "ownerPubkey",
			"data":       []string{data, "base64"},
			"executable": false,
			"rentEpoch":  uint64(361),
		},
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "somePubkey")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}

	if info == nil {
		t.Fatal("expected account info, got nil")
	}
	if info.Lamports != 5000000 {
		t.Errorf("expected 5000000 lamports, got %d", info.Lamports)
	}
	if info.Owner != "ownerPubkey" {
		t.Errorf("expected owner ownerPubkey, got %s", info.Owner)
	}
	if len(info.Data) != 4 || info.Data[0] != 1 {
		t.Errorf("unexpected data: %v", info.Data)
	}
}

func TestHTTPClient_GetAccountInfo_NotFound(t *testing.T) {
	server := rpcTestServer(t, "getAccountInfo", map[string]interface{}{
		"value": nil,
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil for missing account, got %+v", info)
	}
}

func TestHTTPClient_GetMultipleAccounts_NilEntries(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte{7})
	server := rpcTestServer(t, "getMultipleAccounts", map[string]interface{}{
		"value": []interface{}{
			map[string]interface{}{
				"lamports": uint64(100),
				"owner":    "o1",
				"data":     []string{data, "base64"},
			},
			nil,
		},
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	infos, err := client.GetMultipleAccounts(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("GetMultipleAccounts: %v", err)
	}

	if len(infos) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(infos))
	}
	if infos[0] == nil || infos[0].Lamports != 100 {
		t.Errorf("unexpected first entry: %+v", infos[0])
	}
	if infos[1] != nil {
		t.Errorf("expected nil second entry, got %+v", infos[1])
	}
}

func TestHTTPClient_GetMultipleAccounts_TooMany(t *testing.T) {
	client := NewHTTPClient("http://unused")
	pubkeys := make([]string, 101)
	_, err := client.GetMultipleAccounts(context.Background(), pubkeys)
	if err == nil {
		t.Fatal("expected error for more than 100 accounts")
	}
}

func TestHTTPClient_GetTokenAccountBalance_Missing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32602,
				"message": "Invalid param: could not find account",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	amount, err := client.GetTokenAccountBalance(context.Background(), "missing")
	if err != nil {
		t.Fatalf("expected missing account to map to nil, got error: %v", err)
	}
	if amount != nil {
		t.Errorf("expected nil amount, got %+v", amount)
	}
}

func TestHTTPClient_SendTransaction_ProgramError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32002,
				"message": "Transaction simulation failed",
				"data": map[string]interface{}{
					"err": map[string]interface{}{
						"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 311}},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(0))
	_, err := client.SendTransaction(context.Background(), []byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected RPC error")
	}

	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("expected *RPCError, got %T", err)
	}
	code, ok := rpcErr.CustomErrorCode()
	if !ok {
		t.Fatal("expected custom error code")
	}
	if code != 311 {
		t.Errorf("expected code 311, got %d", code)
	}
}

func TestHTTPClient_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"value": uint64(42)},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	balance, err := client.GetBalance(context.Background(), "pubkey")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != 42 {
		t.Errorf("expected balance 42, got %d", balance)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestHTTPClient_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		calls.Add(1)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	_, err := client.GetBalance(context.Background(), "pubkey")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("RPC error should not be retried, got %d calls", calls.Load())
	}
}

func TestHTTPClient_GetSignatureStatuses(t *testing.T) {
	server := rpcTestServer(t, "getSignatureStatuses", map[string]interface{}{
		"value": []interface{}{
			map[string]interface{}{
				"slot":               int64(5000),
				"confirmations":      10,
				"confirmationStatus": "confirmed",
				"err":                nil,
			},
			nil,
		},
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	statuses, err := client.GetSignatureStatuses(context.Background(), []string{"sig1", "sig2"})
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}

	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Confirmed() {
		t.Error("expected first signature confirmed")
	}
	if statuses[1] != nil {
		t.Errorf("expected nil for unknown signature, got %+v", statuses[1])
	}
}

func TestTransactionRPCError(t *testing.T) {
	txErr := map[string]interface{}{
		"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 309}},
	}

	rpcErr := TransactionRPCError(txErr)
	if rpcErr == nil {
		t.Fatal("expected an error")
	}

	code, ok := rpcErr.CustomErrorCode()
	if !ok {
		t.Fatal("expected custom error code")
	}
	if code != 309 {
		t.Errorf("expected code 309, got %d", code)
	}

	if TransactionRPCError(nil) != nil {
		t.Error("expected nil for nil input")
	}
}

func TestSignatureStatus_Helpers(t *testing.T) {
	var missing *SignatureStatus
	if missing.Confirmed() || missing.Failed() {
		t.Error("nil status should be neither confirmed nor failed")
	}

	pending := &SignatureStatus{ConfirmationStatus: "processed"}
	if pending.Confirmed() {
		t.Error("processed should not count as confirmed")
	}

	failed := &SignatureStatus{ConfirmationStatus: "confirmed", Err: map[string]interface{}{"InstructionError": []interface{}{}}}
	if failed.Confirmed() {
		t.Error("failed transaction should not count as confirmed")
	}
	if !failed.Failed() {
		t.Error("expected Failed")
	}
}
