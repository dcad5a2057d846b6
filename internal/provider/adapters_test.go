package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newVendorServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func sendOne(t *testing.T, p Provider, to string) domain.Response {
	t.Helper()
	resp, err := p.Send(context.Background(), domain.NewMessage(to, "hello", "", nil))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	return resp
}

func TestAlphaSMS(t *testing.T) {
	t.Parallel()

	server := newVendorServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sendsms":
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm() error = %v", err)
			}
			if r.PostForm.Get("api_key") != "key" || r.PostForm.Get("to") != "8801712345678" {
				t.Errorf("form = %v", r.PostForm)
			}
			if r.PostForm.Get("sender_id") != "" {
				t.Errorf("sender_id should be omitted when not configured")
			}
			writeJSON(w, http.StatusOK, `{"error":0,"msg":"Request successfully submitted","data":{"request_id":4411}}`)
		case "/report/request/4411/":
			writeJSON(w, http.StatusOK, `{"error":0,"data":{"request_status":"Complete"}}`)
		case "/user/balance/":
			writeJSON(w, http.StatusOK, `{"error":0,"data":{"balance":"512.25"}}`)
		default:
			http.NotFound(w, r)
		}
	})

	p, err := NewAlphaSMS(Config{"api_key": "key", "base_uri": server.URL}, nil, Hooks{})
	if err != nil {
		t.Fatalf("NewAlphaSMS() error = %v", err)
	}

	resp := sendOne(t, p, "+8801712345678")
	if !resp.IsSuccessful() || resp.MessageID() != "4411" {
		t.Fatalf("Send() = %+v", resp.ToMap())
	}
	if resp.Raw()["provider"] != NameAlphaSMS {
		t.Fatalf("raw = %v, want provider key", resp.Raw())
	}
	if got := p.GetDeliveryStatus(context.Background(), "4411"); got != "complete" {
		t.Fatalf("GetDeliveryStatus() = %q, want complete", got)
	}
	if got := p.GetBalance(context.Background()); got != 512.25 {
		t.Fatalf("GetBalance() = %v, want 512.25", got)
	}
	if got := p.GetDeliveryStatus(context.Background(), "missing"); got != StatusUnknown {
		t.Fatalf("GetDeliveryStatus(missing) = %q, want unknown", got)
	}
}

func TestAlphaSMSVendorFailure(t *testing.T) {
	t.Parallel()

	server := newVendorServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"error":405,"msg":"Authorization required"}`)
	})

	p, err := NewAlphaSMS(Config{"api_key": "key", "base_uri": server.URL}, nil, Hooks{})
	if err != nil {
		t.Fatalf("NewAlphaSMS() error = %v", err)
	}

	resp := sendOne(t, p, "01712345678")
	if resp.ErrorCode() != "405" || resp.ErrorMessage() != "Authorization required" {
		t.Fatalf("Send() = %+v", resp.ToMap())
	}
}

func TestBulkSMSBDResponses(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		contentType string
		body        string
		wantSuccess bool
		wantCode    string
		wantMessage string
	}{
		{name: "text success", contentType: "text/plain", body: "SMS Submitted Successfully 202\n", wantSuccess: true},
		{name: "text known error", contentType: "text/plain", body: "1007", wantCode: "1007", wantMessage: "Balance Insufficient"},
		{name: "text unknown code", contentType: "text/plain", body: "error 1099", wantCode: "1099", wantMessage: "error 1099"},
		{name: "text without code", contentType: "text/plain", body: "denied", wantCode: domain.ErrCodeUnknown, wantMessage: "denied"},
		{name: "json success", contentType: "application/json", body: `{"status_code":202,"message_id":"m-1"}`, wantSuccess: true},
		{name: "json failure", contentType: "application/json", body: `{"status_code":1003,"error":"Missing fields"}`, wantCode: "1003", wantMessage: "Missing fields"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := newVendorServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/smsapi" {
					t.Errorf("path = %s", r.URL.Path)
				}
				q := r.URL.Query()
				if q.Get("number") != "8801712345678" || q.Get("senderid") != "ACME" || q.Get("type") != "text" {
					t.Errorf("query = %v", q)
				}
				w.Header().Set("Content-Type", tc.contentType)
				_, _ = io.WriteString(w, tc.body)
			})

			p, err := NewBulkSMSBD(Config{"api_key": "key", "sender_id": "ACME", "base_uri": server.URL}, nil, Hooks{})
			if err != nil {
				t.Fatalf("NewBulkSMSBD() error = %v", err)
			}

			resp := sendOne(t, p, "01712345678")
			if resp.IsSuccessful() != tc.wantSuccess {
				t.Fatalf("Send() = %+v, want success=%v", resp.ToMap(), tc.wantSuccess)
			}
			if tc.wantSuccess {
				if resp.MessageID() == "" {
					t.Fatal("expected a message id")
				}
				return
			}
			if resp.ErrorCode() != tc.wantCode || resp.ErrorMessage() != tc.wantMessage {
				t.Fatalf("failure = %s %q, want %s %q", resp.ErrorCode(), resp.ErrorMessage(), tc.wantCode, tc.wantMessage)
			}
		})
	}
}

func TestBulkSMSBDBalanceFromText(t *testing.T) {
	t.Parallel()

	server := newVendorServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Your Balance is 455.23 BDT")
	})

	p, err := NewBulkSMSBD(Config{"api_key": "key", "sender_id": "ACME", "base_uri": server.URL}, nil, Hooks{})
	if err != nil {
		t.Fatalf("NewBulkSMSBD() error = %v", err)
	}
	if got := p.GetBalance(context.Background()); got != 455.23 {
		t.Fatalf("GetBalance() = %v, want 455.23", got)
	}
	if got := p.GetDeliveryStatus(context.Background(), "x"); got != StatusUnknown {
		t.Fatalf("GetDeliveryStatus() = %q, want unknown", got)
	}
}

func TestDhorolaResponses(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		body        string
		wantSuccess bool
		wantCode    string
		wantMessage string
	}{
		{name: "success", body: `{"response":[{"status":0,"id":"d-1"}]}`, wantSuccess: true},
		{name: "known error", body: `{"response":[{"status":1000}]}`, wantCode: "1000", wantMessage: "Low balance"},
		{name: "unmapped error", body: `{"response":[{"status":77}]}`, wantCode: "77", wantMessage: "Error code: 77"},
		{name: "no status", body: `{"response":[]}`, wantCode: domain.ErrCodeUnknown, wantMessage: "Unknown error occurred"},
		{name: "not json", body: `oops`, wantCode: domain.ErrCodeUnknown, wantMessage: "Unknown error occurred"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := newVendorServer(t, func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("apikey") != "key" || q.Get("msisdn") != "8801712345678" || q.Get("sender") != "ACME" {
					t.Errorf("query = %v", q)
				}
				writeJSON(w, http.StatusOK, tc.body)
			})

			p, err := NewDhorola(Config{"api_key": "key", "sender_id": "ACME", "base_uri": server.URL}, nil, Hooks{})
			if err != nil {
				t.Fatalf("NewDhorola() error = %v", err)
			}

			resp := sendOne(t, p, "01712345678")
			if resp.IsSuccessful() != tc.wantSuccess {
				t.Fatalf("Send() = %+v", resp.ToMap())
			}
			if tc.wantSuccess {
				if resp.MessageID() != "d-1" {
					t.Fatalf("MessageID() = %q, want d-1", resp.MessageID())
				}
				return
			}
			if resp.ErrorCode() != tc.wantCode || resp.ErrorMessage() != tc.wantMessage {
				t.Fatalf("failure = %s %q, want %s %q", resp.ErrorCode(), resp.ErrorMessage(), tc.wantCode, tc.wantMessage)
			}
		})
	}
}

func TestDhorolaBalance(t *testing.T) {
	t.Parallel()

	server := newVendorServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getbalancev3" {
			t.Errorf("path = %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, `{"response":"1234.50"}`)
	})

	p, err := NewDhorola(Config{"api_key": "key", "sender_id": "ACME", "base_uri": server.URL}, nil, Hooks{})
	if err != nil {
		t.Fatalf("NewDhorola() error = %v", err)
	}
	if got := p.GetBalance(context.Background()); got != 1234.50 {
		t.Fatalf("GetBalance() = %v, want 1234.50", got)
	}
}

func TestESMS(t *testing.T) {
	t.Parallel()

	server := newVendorServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		switch r.URL.Path {
		case "/api/v3/sms/send":
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm() error = %v", err)
			}
			if r.PostForm.Get("recipient") != "01712345678" || r.PostForm.Get("sender_id") != "ACME" || r.PostForm.Get("type") != "plain" {
				t.Errorf("form = %v", r.PostForm)
			}
			writeJSON(w, http.StatusOK, `{"status":"success","data":{"uid":"u-1","cost":"0.35"}}`)
		case "/api/v3/sms/u-1":
			writeJSON(w, http.StatusOK, `{"status":"success","data":{"status":"Delivered"}}`)
		case "/api/v3/balance":
			writeJSON(w, http.StatusOK, `{"status":"success","data":{"remaining_balance":88.5}}`)
		default:
			http.NotFound(w, r)
		}
	})

	p, err := NewESMS(Config{"api_token": "tok", "sender_id": "ACME", "base_uri": server.URL}, nil, Hooks{})
	if err != nil {
		t.Fatalf("NewESMS() error = %v", err)
	}

	resp := sendOne(t, p, "+8801712345678")
	if !resp.IsSuccessful() || resp.MessageID() != "u-1" {
		t.Fatalf("Send() = %+v", resp.ToMap())
	}
	if cost := resp.Cost(); cost == nil || *cost != 0.35 {
		t.Fatalf("Cost() = %v, want 0.35", cost)
	}
	if got := p.GetDeliveryStatus(context.Background(), "u-1"); got != "Delivered" {
		t.Fatalf("GetDeliveryStatus() = %q, want Delivered", got)
	}
	if got := p.GetBalance(context.Background()); got != 88.5 {
		t.Fatalf("GetBalance() = %v, want 88.5", got)
	}
}

func TestESMSTransportFailures(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{name: "throttled", status: http.StatusTooManyRequests, wantTransient: true},
		{name: "server error", status: http.StatusBadGateway, wantTransient: true},
		{name: "unauthorized", status: http.StatusUnauthorized, wantTransient: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := newVendorServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})

			core, logs := observer.New(zapcore.WarnLevel)
			p, err := NewESMS(Config{"api_token": "tok", "sender_id": "ACME", "base_uri": server.URL}, nil, Hooks{Log: zap.New(core)})
			if err != nil {
				t.Fatalf("NewESMS() error = %v", err)
			}

			resp := sendOne(t, p, "01712345678")
			if resp.ErrorCode() != domain.ErrCodeProviderError {
				t.Fatalf("ErrorCode() = %q, want PROVIDER_ERROR", resp.ErrorCode())
			}
			if !domain.IsRerouteCode(resp.ErrorCode()) {
				t.Fatalf("transport failure %q should be reroutable", resp.ErrorCode())
			}

			entries := logs.FilterMessage("sms vendor request failed").All()
			if len(entries) != 1 {
				t.Fatalf("logged %d vendor failures, want 1", len(entries))
			}
			if got := entries[0].ContextMap()["transient"]; got != tc.wantTransient {
				t.Fatalf("transient = %v, want %v", got, tc.wantTransient)
			}
		})
	}
}

func TestESMSUnreachableHostIsProviderError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURI := server.URL
	server.Close()

	p, err := NewESMS(Config{"api_token": "tok", "sender_id": "ACME", "base_uri": baseURI, "timeout": "2"}, nil, Hooks{})
	if err != nil {
		t.Fatalf("NewESMS() error = %v", err)
	}

	resp := sendOne(t, p, "01712345678")
	if resp.ErrorCode() != domain.ErrCodeProviderError {
		t.Fatalf("ErrorCode() = %q, want PROVIDER_ERROR (%s)", resp.ErrorCode(), resp.ErrorMessage())
	}
	if p.GetBalance(context.Background()) != 0 {
		t.Fatal("balance lookups never fail and fall back to 0")
	}
}

func TestESMSRequiresSenderID(t *testing.T) {
	t.Parallel()

	_, err := NewESMS(Config{"api_token": "tok"}, nil, Hooks{})
	if !errors.Is(err, domain.ErrConfiguration) || !strings.Contains(err.Error(), "sender_id") {
		t.Fatalf("NewESMS() error = %v, want missing sender_id", err)
	}
}

func TestMiMSMS(t *testing.T) {
	t.Parallel()

	server := newVendorServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/SmsSending/SMS":
			var body mimSMSRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if body.MobileNumber != "8801712345678" || body.SenderName != "MiMSMS" || body.TransactionType != "P" || body.CampaignID != "C-9" {
				t.Errorf("body = %+v", body)
			}
			if body.Message == "fail" {
				writeJSON(w, http.StatusOK, `{"statusCode":"208","status":"Failed","responseResult":"Invalid Mobile Number"}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"statusCode":"200","status":"Success","trxnId":"T-1","responseResult":"SMS Submitted"}`)
		case "/api/SmsSending/balanceCheck":
			writeJSON(w, http.StatusOK, `{"statusCode":"200","status":"Success","responseResult":"310.40"}`)
		default:
			http.NotFound(w, r)
		}
	})

	p, err := NewMiMSMS(Config{
		"username":         "user",
		"apikey":           "key",
		"transaction_type": "P",
		"campaign_id":      "C-9",
		"base_uri":         server.URL,
	}, nil, Hooks{})
	if err != nil {
		t.Fatalf("NewMiMSMS() error = %v", err)
	}

	resp := sendOne(t, p, "01712345678")
	if !resp.IsSuccessful() || resp.MessageID() != "T-1" {
		t.Fatalf("Send() = %+v", resp.ToMap())
	}

	failed, err := p.Send(context.Background(), domain.NewMessage("01712345678", "fail", "", nil))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if failed.ErrorCode() != "208" || failed.ErrorMessage() != "Invalid Mobile Number" {
		t.Fatalf("Send(fail) = %+v", failed.ToMap())
	}

	if got := p.GetBalance(context.Background()); got != 310.40 {
		t.Fatalf("GetBalance() = %v, want 310.40", got)
	}
}

func TestMiMSMSRejectsUnknownTransactionType(t *testing.T) {
	t.Parallel()

	_, err := NewMiMSMS(Config{"username": "user", "apikey": "key", "transaction_type": "X"}, nil, Hooks{})
	if err == nil || !strings.Contains(err.Error(), "transaction_type") {
		t.Fatalf("NewMiMSMS() error = %v, want transaction_type rejection", err)
	}
}

func TestReveSMS(t *testing.T) {
	t.Parallel()

	server := newVendorServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/sendtext":
			if q.Get("toUser") != "01712345678" || q.Get("callerID") != "REVESMS" || q.Get("secretkey") != "secret" {
				t.Errorf("query = %v", q)
			}
			switch q.Get("messageContent") {
			case "auth":
				writeJSON(w, http.StatusOK, `{"Status":"108","Text":"x"}`)
			case "odd":
				writeJSON(w, http.StatusOK, `{"Status":"999","Text":"Something odd"}`)
			default:
				writeJSON(w, http.StatusOK, `{"Status":"0","Text":"ACCEPTD","Message_ID":"r-1"}`)
			}
		case "/getstatus":
			writeJSON(w, http.StatusOK, `{"Status":"2"}`)
		case "/sms/smsConfiguration/smsClientBalance.jsp":
			if q.Get("client") != "client-1" {
				t.Errorf("client = %q", q.Get("client"))
			}
			_, _ = io.WriteString(w, "  1520.75 \n")
		default:
			http.NotFound(w, r)
		}
	})

	p, err := NewReveSMS(Config{
		"apikey":      "key",
		"secretkey":   "secret",
		"client_id":   "client-1",
		"base_uri":    server.URL,
		"balance_uri": server.URL,
	}, nil, Hooks{})
	if err != nil {
		t.Fatalf("NewReveSMS() error = %v", err)
	}

	resp := sendOne(t, p, "8801712345678")
	if !resp.IsSuccessful() || resp.MessageID() != "r-1" {
		t.Fatalf("Send() = %+v", resp.ToMap())
	}

	testCases := []struct {
		body        string
		wantCode    string
		wantMessage string
	}{
		{body: "auth", wantCode: "108", wantMessage: "Wrong password/not provided"},
		{body: "odd", wantCode: "999", wantMessage: "Something odd"},
	}
	for _, tc := range testCases {
		failed, err := p.Send(context.Background(), domain.NewMessage("01712345678", tc.body, "", nil))
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if failed.ErrorCode() != tc.wantCode || failed.ErrorMessage() != tc.wantMessage {
			t.Fatalf("Send(%s) = %+v", tc.body, failed.ToMap())
		}
	}

	if got := p.GetDeliveryStatus(context.Background(), "r-1"); got != "pending" {
		t.Fatalf("GetDeliveryStatus() = %q, want pending", got)
	}
	if got := p.GetBalance(context.Background()); got != 1520.75 {
		t.Fatalf("GetBalance() = %v, want 1520.75", got)
	}
}

func TestTwilio(t *testing.T) {
	t.Parallel()

	server := newVendorServer(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC1" || pass != "secret" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		switch r.URL.Path {
		case "/2010-04-01/Accounts/AC1/Messages.json":
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm() error = %v", err)
			}
			if r.PostForm.Get("To") == "+15005550001" {
				writeJSON(w, http.StatusBadRequest, `{"code":21211,"message":"Invalid 'To' Phone Number","status":400}`)
				return
			}
			if r.PostForm.Get("To") != "+14155552671" || r.PostForm.Get("From") != "+15005550006" {
				t.Errorf("form = %v", r.PostForm)
			}
			writeJSON(w, http.StatusCreated, `{"sid":"SM1","status":"queued","price":"-0.0075","error_code":null,"error_message":null}`)
		case "/2010-04-01/Accounts/AC1/Messages/SM1.json":
			writeJSON(w, http.StatusOK, `{"sid":"SM1","status":"delivered"}`)
		case "/2010-04-01/Accounts/AC1/Balance.json":
			writeJSON(w, http.StatusOK, `{"balance":"12.50","currency":"USD"}`)
		default:
			http.NotFound(w, r)
		}
	})

	p, err := NewTwilio(Config{
		"account_sid": "AC1",
		"auth_token":  "secret",
		"from":        "+15005550006",
		"base_uri":    server.URL,
	}, nil, Hooks{})
	if err != nil {
		t.Fatalf("NewTwilio() error = %v", err)
	}

	resp := sendOne(t, p, "1 415 555 2671")
	if !resp.IsSuccessful() || resp.MessageID() != "SM1" || resp.Status() != "queued" {
		t.Fatalf("Send() = %+v", resp.ToMap())
	}
	if cost := resp.Cost(); cost == nil || *cost != 0.0075 {
		t.Fatalf("Cost() = %v, want 0.0075", cost)
	}

	rejected := sendOne(t, p, "+15005550001")
	if rejected.ErrorCode() != "21211" || rejected.ErrorMessage() != "Invalid 'To' Phone Number" {
		t.Fatalf("Send(invalid) = %+v", rejected.ToMap())
	}

	if got := p.GetDeliveryStatus(context.Background(), "SM1"); got != "delivered" {
		t.Fatalf("GetDeliveryStatus() = %q, want delivered", got)
	}
	if got := p.GetBalance(context.Background()); got != 12.50 {
		t.Fatalf("GetBalance() = %v, want 12.50", got)
	}
}

func TestTwilioInvalidResponse(t *testing.T) {
	t.Parallel()

	p, err := NewTwilio(Config{"account_sid": "a", "auth_token": "t", "from": "+1555"}, nil, Hooks{})
	if err != nil {
		t.Fatalf("NewTwilio() error = %v", err)
	}
	resp := p.parseResponse(map[string]any{"unexpected": true})
	if resp.ErrorCode() != domain.ErrCodeInvalidResponse {
		t.Fatalf("ErrorCode() = %q, want INVALID_RESPONSE", resp.ErrorCode())
	}
}

func TestNexmo(t *testing.T) {
	t.Parallel()

	server := newVendorServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sms/json":
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm() error = %v", err)
			}
			if r.PostForm.Get("to") != "447911123456" || r.PostForm.Get("from") != "Textify" || r.PostForm.Get("client-ref") != "ref-1" {
				t.Errorf("form = %v", r.PostForm)
			}
			if r.PostForm.Get("text") == "fail" {
				writeJSON(w, http.StatusOK, `{"message-count":"1","messages":[{"status":"2","error-text":"Missing to param"}]}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"message-count":"1","messages":[{"status":"0","message-id":"n-1","message-price":"0.03330000"}]}`)
		case "/account/get-balance":
			writeJSON(w, http.StatusOK, `{"value":10.28,"autoReload":false}`)
		default:
			http.NotFound(w, r)
		}
	})

	p, err := NewNexmo(Config{
		"api_key":    "key",
		"api_secret": "secret",
		"from":       "Textify",
		"client_ref": "ref-1",
		"base_uri":   server.URL,
	}, nil, Hooks{})
	if err != nil {
		t.Fatalf("NewNexmo() error = %v", err)
	}

	resp := sendOne(t, p, "+447911123456")
	if !resp.IsSuccessful() || resp.MessageID() != "n-1" || resp.Status() != "delivered" {
		t.Fatalf("Send() = %+v", resp.ToMap())
	}
	if cost := resp.Cost(); cost == nil || *cost != 0.0333 {
		t.Fatalf("Cost() = %v, want 0.0333", cost)
	}

	failed, err := p.Send(context.Background(), domain.NewMessage("+447911123456", "fail", "", nil))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if failed.ErrorCode() != "2" || failed.ErrorMessage() != "Missing to param" {
		t.Fatalf("Send(fail) = %+v", failed.ToMap())
	}

	if got := p.GetDeliveryStatus(context.Background(), "n-1"); got != "pending" {
		t.Fatalf("GetDeliveryStatus() = %q, want pending", got)
	}
	if got := p.GetBalance(context.Background()); got != 10.28 {
		t.Fatalf("GetBalance() = %v, want 10.28", got)
	}
}
