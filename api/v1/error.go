package log_v1

import (
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrRecordNotFound is returned when the log holds no record for ID.
type ErrRecordNotFound struct {
	ID uint32
}

func (e ErrRecordNotFound) GRPCStatus() *status.Status {
	st := status.New(codes.NotFound, fmt.Sprintf("record not found: %d", e.ID))
	msg := fmt.Sprintf(
		"No record with id %d has been stored",
		e.ID,
	)
	d := &errdetails.LocalizedMessage{
		Locale:  "en-US",
		Message: msg,
	}
	std, err := st.WithDetails(d)
	if err != nil {
		return st
	}
	return std
}

func (e ErrRecordNotFound) Error() string {
	return e.GRPCStatus().Err().Error()
}
