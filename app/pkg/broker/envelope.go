// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package broker implements the typed envelope producer/consumer over the
// message broker: topic routing, envelope framing, and at-least-once
// delivery semantics (duplicates are possible by design — see C10).
package broker

import "encoding/json"

// EnvelopeType identifies the kind of message carried on the wire.
type EnvelopeType string

const (
	JobSubmit        EnvelopeType = "JOB_SUBMIT"
	JobCancel        EnvelopeType = "JOB_CANCEL"
	JobResult        EnvelopeType = "JOB_RESULT"
	ExecutorHeartbeat EnvelopeType = "EXECUTOR_HEARTBEAT"
)

const (
	TopicJobSubmit        = "job-submit"
	TopicJobCancel        = "job-cancel"
	TopicJobResult        = "job-result"
	TopicExecutorHeartbeat = "executor-heartbeat"
)

// Envelope is the wire shape for every broker message: a typed wrapper
// around an opaque string payload, typically embedded JSON.
type Envelope struct {
	Type    EnvelopeType `json:"type"`
	Payload string       `json:"payload"`
}

// Marshal serializes the envelope to its wire bytes.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal parses wire bytes into an Envelope.
func Unmarshal(data []byte) (Envelope, error) {
	var e Envelope
	err := json.Unmarshal(data, &e)
	return e, err
}
