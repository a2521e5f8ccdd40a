package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// rpcServer returns a test server that answers every call with result.
func rpcServer(t *testing.T, method string, result interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
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

func TestHTTPClient_GetBalance(t *testing.T) {
	server := rpcServer(t, "getBalance", map[string]interface{}{
		"context": map[string]interface{}{"slot": 1},
		"value":   uint64(2_500_000_000),
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)

	lamports, err := client.GetBalance(context.Background(), "wallet")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}

	if lamports != 2_500_000_000 {
		t.Errorf("expected 2500000000 lamports, got %d", lamports)
	}
}

func TestHTTPClient_GetTokenAccountsByOwner(t *testing.T) {
	var filter map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getTokenAccountsByOwner" {
			t.Errorf("unexpected method %s", req.Method)
		}
		if len(req.Params) != 3 {
			t.Fatalf("expected 3 params, got %d", len(req.Params))
		}
		json.Unmarshal(req.Params[1], &filter)

		account := func(mint, amount string, decimals int, ui float64) map[string]interface{} {
			return map[string]interface{}{
				"pubkey": "acct-" + mint,
				"account": map[string]interface{}{
					"data": map[string]interface{}{
						"parsed": map[string]interface{}{
							"info": map[string]interface{}{
								"mint":  mint,
								"owner": "wallet",
								"tokenAmount": map[string]interface{}{
									"amount":   amount,
									"decimals": decimals,
									"uiAmount": ui,
								},
							},
						},
					},
				},
			}
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"value": []interface{}{
					account("MintA", "1500000", 6, 1.5),
					account("MintB", "0", 9, 0),
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	accounts, err := client.GetTokenAccountsByOwner(context.Background(), "wallet", "")
	if err != nil {
		t.Fatalf("GetTokenAccountsByOwner: %v", err)
	}

	if filter["programId"] != TokenProgramID {
		t.Errorf("expected programId filter, got %v", filter)
	}

	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}

	if accounts[0].Mint != "MintA" || accounts[0].Amount != "1500000" || accounts[0].Decimals != 6 {
		t.Errorf("unexpected first account: %+v", accounts[0])
	}

	if accounts[0].UIAmount != 1.5 {
		t.Errorf("expected uiAmount 1.5, got %f", accounts[0].UIAmount)
	}

	if _, err := client.GetTokenAccountsByOwner(context.Background(), "wallet", "MintA"); err != nil {
		t.Fatalf("GetTokenAccountsByOwner with mint: %v", err)
	}

	if filter["mint"] != "MintA" {
		t.Errorf("expected mint filter, got %v", filter)
	}
}

func TestHTTPClient_GetAsset(t *testing.T) {
	var params map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64                 `json:"id"`
			Method string                 `json:"method"`
			Params map[string]interface{} `json:"params"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		params = req.Params

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"id": "MintA",
				"content": map[string]interface{}{
					"metadata": map[string]interface{}{"name": "Alpha", "symbol": "ALP"},
					"links":    map[string]interface{}{"image": "https://img/alpha.png"},
				},
				"token_info": map[string]interface{}{
					"decimals":   6,
					"price_info": map[string]interface{}{"price_per_token": 0.25},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	asset, err := client.GetAsset(context.Background(), "MintA")
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}

	if params["id"] != "MintA" {
		t.Errorf("expected named id param, got %v", params)
	}

	if asset == nil {
		t.Fatal("expected asset, got nil")
	}

	if asset.Name != "Alpha" || asset.Symbol != "ALP" || asset.Image != "https://img/alpha.png" {
		t.Errorf("unexpected asset: %+v", asset)
	}

	if asset.Decimals == nil || *asset.Decimals != 6 {
		t.Errorf("expected decimals 6, got %v", asset.Decimals)
	}

	if asset.Price == nil || *asset.Price != 0.25 {
		t.Errorf("expected price 0.25, got %v", asset.Price)
	}
}

func TestHTTPClient_GetAsset_NotFound(t *testing.T) {
	server := rpcServer(t, "getAsset", nil)
	defer server.Close()

	client := NewHTTPClient(server.URL)

	asset, err := client.GetAsset(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}

	if asset != nil {
		t.Errorf("expected nil asset, got %+v", asset)
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"value": uint64(999)},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	lamports, err := client.GetBalance(context.Background(), "wallet")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}

	if lamports != 999 {
		t.Errorf("expected 999, got %d", lamports)
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_RetriesExhausted(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(2),
		WithRetryDelay(time.Millisecond),
	)

	_, err := client.GetBalance(context.Background(), "wallet")
	if err == nil {
		t.Fatal("expected error")
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32601,
				"message": "Method not found",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))

	_, err := client.GetAsset(context.Background(), "MintA")
	if err == nil {
		t.Fatal("expected error")
	}

	if !IsRPCError(err) {
		t.Errorf("expected RPCError, got %T: %v", err, err)
	}

	if attempts.Load() != 1 {
		t.Errorf("RPC errors must not be retried, got %d attempts", attempts.Load())
	}
}

func TestHTTPClient_GetAccountInfo(t *testing.T) {
	server := rpcServer(t, "getAccountInfo", map[string]interface{}{
		"value": map[string]interface{}{
			"lamports":   uint64(1000000),
			"owner":      "11111111111111111111111111111111",
			"data":       []string{"SGVsbG8gV29ybGQ=", "base64"},
			"executable": false,
			"rentEpoch":  uint64(100),
		},
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)

	info, err := client.GetAccountInfo(context.Background(), "testpubkey")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}

	if info == nil {
		t.Fatal("expected account info, got nil")
	}

	if info.Lamports != 1000000 {
		t.Errorf("expected lamports 1000000, got %d", info.Lamports)
	}

	if info.Data != "SGVsbG8gV29ybGQ=" {
		t.Errorf("unexpected data: %s", info.Data)
	}
}

func TestHTTPClient_GetAccountInfo_NotFound(t *testing.T) {
	server := rpcServer(t, "getAccountInfo", map[string]interface{}{"value": nil})
	defer server.Close()

	client := NewHTTPClient(server.URL)

	info, err := client.GetAccountInfo(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}

	if info != nil {
		t.Errorf("expected nil for not found, got %+v", info)
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := client.GetBalance(ctx, "wallet")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestHTTPClient_RateLimit(t *testing.T) {
	server := rpcServer(t, "getBalance", map[string]interface{}{"value": uint64(1)})
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRateLimit(20, 1))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.GetBalance(context.Background(), "wallet"); err != nil {
			t.Fatalf("GetBalance: %v", err)
		}
	}

	// burst 1 at 20/s: the 2nd and 3rd calls wait ~50ms each
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected rate limiting, finished in %v", elapsed)
	}
}

func TestHTTPClient_SharedLimiter(t *testing.T) {
	server := rpcServer(t, "getBalance", map[string]interface{}{"value": uint64(1)})
	defer server.Close()

	limiter := NewLimiter(20, 1)
	first := NewHTTPClient(server.URL, WithLimiter(limiter))
	second := NewHTTPClient(server.URL, WithLimiter(limiter), WithMaxRetries(0))

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := first.GetBalance(context.Background(), "wallet"); err != nil {
			t.Fatalf("first GetBalance: %v", err)
		}
		if _, err := second.GetBalance(context.Background(), "wallet"); err != nil {
			t.Fatalf("second GetBalance: %v", err)
		}
	}

	// four calls through one burst-1 bucket at 20/s wait ~150ms in total
	if elapsed := time.Since(start); elapsed < 130*time.Millisecond {
		t.Errorf("expected clients to share the limit, finished in %v", elapsed)
	}
}

func TestNewLimiter_Disabled(t *testing.T) {
	if l := NewLimiter(0, 5); l != nil {
		t.Errorf("expected nil limiter for zero rate, got %v", l)
	}
}
