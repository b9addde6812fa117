package connector

import (
	"context"
	"encoding/json"
	"fmt"

	"vclink.org/internal/request"
)

// Demo is a protocol-less connector for development and tests. The verify
// side echoes a fake presentation request and accepts any JSON disclosure
// body verbatim as the result; the issue side mirrors the request's data.
type Demo struct {
	name string
}

func NewDemo(name string) *Demo {
	if name == "" {
		name = "demo"
	}
	return &Demo{name: name}
}

func (d *Demo) Name() string { return d.name }

// Describe returns the registry descriptor for the demo connector. It
// declares no categories, so it serves every credential type.
func (d *Demo) Describe() Descriptor {
	return Descriptor{Name: d.name}
}

func (d *Demo) HandleVerifyRequest(ctx context.Context, req *request.VerifyRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]string{
		"connector": d.name,
		"request":   req.RequestID(),
		"type":      req.TypeName,
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (d *Demo) HandleVerifyDisclosure(ctx context.Context, req *request.VerifyRequest, rawBody []byte) (json.RawMessage, error) {
	if !json.Valid(rawBody) {
		return nil, fmt.Errorf("demo connector: disclosure body is not valid JSON")
	}
	return json.RawMessage(rawBody), nil
}

func (d *Demo) HandleIssueRequest(ctx context.Context, req *request.IssueRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]any{
		"connector": d.name,
		"request":   req.RequestID(),
		"type":      req.TypeName,
		"data":      req.Data,
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (d *Demo) HandleIssueCompletion(ctx context.Context, req *request.IssueRequest, rawBody []byte) (json.RawMessage, error) {
	if len(rawBody) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(rawBody) {
		return nil, fmt.Errorf("demo connector: completion body is not valid JSON")
	}
	return json.RawMessage(rawBody), nil
}
