package localserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/yndnr/aerosense-go/internal/core/domain"
	"github.com/yndnr/aerosense-go/internal/core/service"
)

// Recorder routes a snapshot into the active log.
type Recorder interface {
	Record(ctx context.Context, snapshot domain.SensorSnapshot) (service.Result, error)
}

// Handler turns ingest lines into Recorder calls.
type Handler struct {
	recorder Recorder
}

// NewHandler creates a new Handler.
func NewHandler(recorder Recorder) *Handler {
	return &Handler{recorder: recorder}
}

// Execute records one JSON snapshot line and returns the reply line.
// Blank lines yield an empty reply.
func (h *Handler) Execute(ctx context.Context, line []byte) string {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return ""
	}
	if bytes.Equal(line, []byte("PING")) {
		return "PONG"
	}

	var snap domain.SensorSnapshot
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return reply(domain.ErrInvalidArgument.WithDetails(err.Error()))
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return reply(domain.ErrInvalidArgument.WithDetails("trailing data after snapshot"))
	}

	res, err := h.recorder.Record(ctx, snap)
	if err != nil {
		return reply(err)
	}
	return fmt.Sprintf("OK %s %d", res.Target, res.SequenceID)
}

func reply(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		if de.Details != "" {
			return fmt.Sprintf("ERR %s %s: %s", de.Code, de.Message, de.Details)
		}
		return fmt.Sprintf("ERR %s %s", de.Code, de.Message)
	}
	return "ERR " + err.Error()
}
