package grpccas

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/towns-protocol/towns-sub022/cidutil"
	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/storage"
)

// Server exposes a storage.CAS as the EventStore service.
//
// With VerifyEvents set, Put only accepts canonical event envelopes whose hash
// and signature check out; anything else fails with InvalidArgument and the
// storage.ErrRejected message.
type Server struct {
	UnimplementedEventStoreServer

	CAS          storage.CAS
	VerifyEvents bool
	Logger       *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default().With("component", "eventstore")
}

func (s *Server) Put(_ context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing CAS")
	}
	b := in.GetValue()
	expected, err := cidutil.CIDv1RawSHA256CID(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	if s.VerifyEvents {
		if err := verifyEnvelope(b); err != nil {
			s.logger().Warn("rejected event envelope", "cid", expected.String(), "error", err)
			return nil, status.Error(codes.InvalidArgument, storage.ErrRejected.Error()+": "+err.Error())
		}
	}
	id, err := s.CAS.Put(b)
	if err != nil {
		return nil, mapErr(err)
	}
	if id != expected {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	s.logger().Debug("stored object", "cid", id.String(), "bytes", len(b))
	return wrapperspb.String(id.String()), nil
}

// verifyEnvelope requires b to be the canonical encoding of a valid event.
func verifyEnvelope(b []byte) error {
	e, err := events.DecodeEvent(b)
	if err != nil {
		return err
	}
	if err := events.CheckEvent(e, ""); err != nil {
		return err
	}
	canon, err := events.EncodeEvent(e)
	if err != nil {
		return err
	}
	if string(canon) != string(b) {
		return errors.New("envelope is not in canonical form")
	}
	return nil
}

func (s *Server) Get(_ context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing CAS")
	}
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	b, err := s.CAS.Get(id)
	if err != nil {
		return nil, mapErr(err)
	}
	got, err := cidutil.CIDv1RawSHA256CID(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	if got != id {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(_ context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing CAS")
	}
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	return wrapperspb.Bool(s.CAS.Has(id)), nil
}

// mapErr turns storage sentinels into status codes; errors.Is sees through the
// wrapping done by MultiCAS and ReplicatingCAS.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case storage.IsNotFound(err):
		return status.Error(codes.NotFound, storage.ErrNotFound.Error())
	case errors.Is(err, storage.ErrInvalidCID):
		return status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	case errors.Is(err, storage.ErrCIDMismatch):
		return status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	case storage.IsImmutable(err):
		return status.Error(codes.AlreadyExists, storage.ErrImmutable.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
