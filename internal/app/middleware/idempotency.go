package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
	"staybook/internal/domain/shared/failure"
)

// IdempotentCommand is a command the client may safely resend. An empty
// IdempotencyKey opts the single call out.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	// ResultPrototype returns a fresh pointer of the handler's result type.
	ResultPrototype() any
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	ErrorKind  failure.Kind
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var errMissingPrototype = errors.New("middleware: idempotent command has no result prototype")

// Idempotency replays the recorded outcome of a command key. Results and
// classified business errors are recorded; conflicts, processor failures
// and unclassified errors are left for the retry to settle.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			ic, ok := cmd.(IdempotentCommand)
			if !ok || ic.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := cmd.Key() + ":" + ic.IdempotencyKey()
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				return replay(rec, ic, codec)
			}
			res, err := next.Dispatch(ctx, cmd)
			if err := remember(ctx, store, codec, key, res, err); err != nil {
				return nil, err
			}
			return res, err
		})
	}
}

func replay(rec IdempotencyRecord, cmd IdempotentCommand, codec ResultCodec) (any, error) {
	if rec.Error != "" {
		return nil, failure.New(rec.ErrorKind, rec.Error)
	}
	out := cmd.ResultPrototype()
	if out == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return out, nil
	}
	if err := codec.Decode(rec.Payload, out); err != nil {
		return nil, err
	}
	return out, nil
}

// remember stores the outcome when it is worth replaying. It returns
// handlerErr unchanged unless storing fails.
func remember(ctx context.Context, store IdempotencyStore, codec ResultCodec, key string, res any, handlerErr error) error {
	rec := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
	switch {
	case handlerErr != nil && !replayable(handlerErr):
		return handlerErr
	case handlerErr != nil:
		rec.Error = handlerErr.Error()
		rec.ErrorKind = failure.KindOf(handlerErr)
	case res != nil:
		payload, err := codec.Encode(res)
		if err != nil {
			return err
		}
		rec.Payload = payload
	}
	if err := store.Save(ctx, rec); err != nil {
		return errors.Join(handlerErr, err)
	}
	return handlerErr
}

func replayable(err error) bool {
	if errors.Is(err, uow.ErrConflict) {
		return false
	}
	switch failure.KindOf(err) {
	case failure.KindValidation, failure.KindNotFound, failure.KindAuthorization,
		failure.KindStateConflict, failure.KindUnavailable:
		return true
	}
	return false
}
