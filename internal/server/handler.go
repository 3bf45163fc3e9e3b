package server

import (
	"errors"
	"fmt"
	"sync/atomic"

	api "github.com/andrwkng/recordstore/api/v1"
	"github.com/andrwkng/recordstore/internal/wire"
	"github.com/sirupsen/logrus"
)

var errUnexpectedTag = errors.New("unexpected request tag")

// Handler executes one decoded request against the record log. Every
// request yields exactly one response; all errors collapse to FAIL.
type Handler struct {
	log    RecordLog
	logger logrus.FieldLogger
	stats  *counters
}

func newHandler(log RecordLog, logger logrus.FieldLogger, stats *counters) *Handler {
	return &Handler{log: log, logger: logger, stats: stats}
}

// Handle dispatches on the request tag.
func (h *Handler) Handle(req wire.Message) wire.Message {
	switch req.Tag {
	case wire.Put:
		atomic.AddUint64(&h.stats.puts, 1)
		if err := req.Record.Validate(); err != nil {
			return h.fail(req, err)
		}
		if err := h.log.Append(req.Record); err != nil {
			return h.fail(req, err)
		}
		// echo the stored record so the client can show it
		return wire.Message{Tag: wire.Success, Record: req.Record}
	case wire.Get:
		atomic.AddUint64(&h.stats.gets, 1)
		record, err := h.log.FindLatest(req.Record.ID)
		if err != nil {
			return h.fail(req, err)
		}
		return wire.Message{Tag: wire.Success, Record: record}
	default:
		return h.fail(req, fmt.Errorf("%w: %v", errUnexpectedTag, req.Tag))
	}
}

// fail logs err and builds the FAIL response. The peer never learns why.
func (h *Handler) fail(req wire.Message, err error) wire.Message {
	atomic.AddUint64(&h.stats.fails, 1)
	entry := h.logger.WithFields(logrus.Fields{
		"tag": req.Tag.String(),
		"id":  req.Record.ID,
	}).WithError(err)
	var nf api.ErrRecordNotFound
	switch {
	case errors.As(err, &nf):
		entry.Debug("record not found")
	case errors.Is(err, api.ErrNameTooLong),
		errors.Is(err, api.ErrNameInvalid),
		errors.Is(err, errUnexpectedTag),
		errors.Is(err, wire.ErrUnknownTag),
		errors.Is(err, wire.ErrNameNotTerminated):
		entry.Warn("malformed request")
	default:
		entry.Error("request failed")
	}
	return wire.Message{Tag: wire.Fail}
}
