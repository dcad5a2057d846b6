package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kursadbilgin/textify/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

func TestQueueNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantDLQ string
	}{
		{name: "default", input: "", want: "sms", wantDLQ: "dlq.sms"},
		{name: "normalized", input: " Priority ", want: "priority", wantDLQ: "dlq.priority"},
		{name: "plain", input: "otp", want: "otp", wantDLQ: "dlq.otp"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := QueueName(tt.input); got != tt.want {
				t.Fatalf("QueueName(%q) = %s, want %s", tt.input, got, tt.want)
			}
			if got := DLQName(tt.input); got != tt.wantDLQ {
				t.Fatalf("DLQName(%q) = %s, want %s", tt.input, got, tt.wantDLQ)
			}
		})
	}
}

func TestTopology(t *testing.T) {
	t.Parallel()

	topo := newTopology(" OTP ")
	if topo.queue != "otp" || topo.dlq != "dlq.otp" {
		t.Fatalf("newTopology() = %+v, want otp/dlq.otp", topo)
	}

	args := topo.args()
	if args["x-dead-letter-exchange"] != dlxExchangeName {
		t.Fatalf("dead letter exchange = %v", args["x-dead-letter-exchange"])
	}
	if args["x-dead-letter-routing-key"] != "otp" {
		t.Fatalf("dead letter routing key = %v", args["x-dead-letter-routing-key"])
	}
}

func TestNextBackoff(t *testing.T) {
	t.Parallel()

	if got := nextBackoff(time.Second); got != 2*time.Second {
		t.Fatalf("nextBackoff(1s) = %s, want 2s", got)
	}
	if got := nextBackoff(20 * time.Second); got != maxBackoff {
		t.Fatalf("nextBackoff(20s) = %s, want %s", got, maxBackoff)
	}
}

func TestNewSendJob(t *testing.T) {
	t.Parallel()

	msg := domain.NewMessage("01712345678", "hello", "ACME", map[string]any{"order": "A-1"})
	job := NewSendJob(msg, "", "")

	if job.Provider != DefaultProvider || !job.UsesDefaultProvider() {
		t.Fatalf("Provider = %q, want default", job.Provider)
	}
	if job.JobID == "" || job.CorrelationID == "" || job.QueuedAt.IsZero() {
		t.Fatalf("job ids and timestamp should be generated: %+v", job)
	}
	if job.MessageID != msg.ID {
		t.Fatalf("MessageID = %q, want %q", job.MessageID, msg.ID)
	}

	msg.Metadata["order"] = "mutated"
	if job.Metadata["order"] != "A-1" {
		t.Fatal("job metadata must not alias the message")
	}

	rebuilt := job.Message()
	if rebuilt.ID != msg.ID || rebuilt.To != msg.To || rebuilt.Body != msg.Body || rebuilt.From != msg.From {
		t.Fatalf("Message() = %+v", rebuilt)
	}

	named := NewSendJob(msg, " esms ", "corr-1")
	if named.Provider != "esms" || named.UsesDefaultProvider() || named.CorrelationID != "corr-1" {
		t.Fatalf("NewSendJob(esms) = %+v", named)
	}
}

func TestSendJobJSON(t *testing.T) {
	t.Parallel()

	job := NewSendJob(domain.NewMessage("01712345678", "hello", "", nil), "twilio", "corr-1")
	job.Attempts = 2

	raw, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	for _, key := range []string{`"jobId"`, `"message":"hello"`, `"provider":"twilio"`, `"attempts":2`} {
		if !strings.Contains(string(raw), key) {
			t.Fatalf("payload %s missing %s", raw, key)
		}
	}
}

func TestSendJobValidate(t *testing.T) {
	t.Parallel()

	job := NewSendJob(domain.NewMessage("01712345678", "hello", "", nil), "esms", "")
	if err := job.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(j *SendJob)
	}{
		{name: "missing job id", mutate: func(j *SendJob) { j.JobID = " " }},
		{name: "missing recipient", mutate: func(j *SendJob) { j.To = "" }},
		{name: "missing body", mutate: func(j *SendJob) { j.Body = "" }},
		{name: "negative attempts", mutate: func(j *SendJob) { j.Attempts = -1 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			invalid := job
			tt.mutate(&invalid)
			if err := invalid.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDecodeSendJob(t *testing.T) {
	t.Parallel()

	job := NewSendJob(domain.NewMessage("01712345678", "hello", "", nil), "esms", "corr-1")
	raw, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	decoded, err := DecodeSendJob(raw)
	if err != nil {
		t.Fatalf("DecodeSendJob() unexpected error: %v", err)
	}
	if decoded.JobID != job.JobID || decoded.Provider != "esms" || decoded.Body != "hello" {
		t.Fatalf("DecodeSendJob() = %+v", decoded)
	}

	for _, body := range []string{`not json`, `{"jobId":"j-1","to":"01712345678"}`} {
		if _, err := DecodeSendJob([]byte(body)); err == nil {
			t.Fatalf("DecodeSendJob(%s) expected error", body)
		}
	}
}

func TestSendJobPublishing(t *testing.T) {
	t.Parallel()

	job := NewSendJob(domain.NewMessage("01712345678", "hello", "", nil), "twilio", "corr-1")
	job.Attempts = 1

	pub, err := job.publishing()
	if err != nil {
		t.Fatalf("publishing() unexpected error: %v", err)
	}
	if pub.MessageId != job.JobID || pub.CorrelationId != "corr-1" {
		t.Fatalf("ids = %s/%s", pub.MessageId, pub.CorrelationId)
	}
	if pub.DeliveryMode != amqp.Persistent || pub.Type != sendJobType || pub.AppId != appID {
		t.Fatalf("publishing = %+v", pub)
	}
	if !pub.Timestamp.Equal(job.QueuedAt) {
		t.Fatalf("Timestamp = %s, want %s", pub.Timestamp, job.QueuedAt)
	}
	if pub.Headers["x-provider"] != "twilio" || pub.Headers["x-message-id"] != job.MessageID || pub.Headers["x-attempts"] != int32(1) {
		t.Fatalf("Headers = %v", pub.Headers)
	}

	job.To = ""
	if _, err := job.publishing(); err == nil {
		t.Fatal("expected an invalid job to be refused")
	}
}

func TestConsumerHandle(t *testing.T) {
	t.Parallel()

	valid := NewSendJob(domain.NewMessage("01712345678", "hello", "", nil), "esms", "")
	valid.CorrelationID = ""
	body, err := json.Marshal(valid)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	tests := []struct {
		name       string
		body       []byte
		handlerErr error
		want       disposition
		wantCalled bool
	}{
		{name: "handled job is acked", body: body, want: dispositionAck, wantCalled: true},
		{name: "handler failure requeues", body: body, handlerErr: errors.New("broker down"), want: dispositionRequeue, wantCalled: true},
		{name: "malformed payload is dead-lettered", body: []byte("{"), want: dispositionDeadLetter},
		{name: "invalid job is dead-lettered", body: []byte(`{"jobId":"j-1"}`), want: dispositionDeadLetter},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			consumer := NewRabbitMQConsumer(nil, 0, nil)
			var got SendJob
			called := false
			disp := consumer.handle(context.Background(), tt.body, "corr-from-broker", func(_ context.Context, job SendJob) error {
				called = true
				got = job
				return tt.handlerErr
			})

			if disp != tt.want {
				t.Fatalf("disposition = %d, want %d", disp, tt.want)
			}
			if called != tt.wantCalled {
				t.Fatalf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if called && got.CorrelationID != "corr-from-broker" {
				t.Fatalf("CorrelationID = %q, want the delivery's correlation id", got.CorrelationID)
			}
		})
	}
}
