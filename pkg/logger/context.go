package logger

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	logIDKey    = "logID"
	durationKey = "duration"
	updateIDKey = "updateID"
)

type logCtxKey struct{}

var logCtx logCtxKey

type LogID [8]byte

func (lid LogID) String() string {
	return hex.EncodeToString(lid[:])
}

var nilLogID = LogID{}

func (lid LogID) IsValid() bool {
	return !bytes.Equal(lid[:], nilLogID[:])
}

type logContext struct {
	startTime     time.Time
	operationName string
	logID         LogID
	updateID      int
}

func (lgCtx *logContext) fields() []zap.Field {
	if lgCtx == nil {
		return nil
	}

	//nolint:mnd // guide go slice cap
	attrs := make([]zap.Field, 0, 2)
	attrs = append(attrs, zap.String(logIDKey, lgCtx.logID.String()))
	if lgCtx.updateID != 0 {
		attrs = append(attrs, zap.Int(updateIDKey, lgCtx.updateID))
	}
	return attrs
}

func getAttrs(ctx context.Context) []zap.Field {
	lgCtx, _ := ctx.Value(&logCtx).(*logContext)
	return lgCtx.fields()
}

// WithUpdateID tags every line logged with ctx by the Telegram update id.
// ctx must already carry a log context (see Logger.Context); otherwise it is returned unchanged.
func WithUpdateID(ctx context.Context, updateID int) context.Context {
	lgCtx, ok := ctx.Value(&logCtx).(*logContext)
	if !ok {
		return ctx
	}
	next := *lgCtx
	next.updateID = updateID
	return context.WithValue(ctx, &logCtx, &next)
}

func (l *logger) Context(ctx context.Context) context.Context {
	if _, ok := ctx.Value(&logCtx).(*logContext); ok {
		return ctx
	}

	return context.WithValue(ctx, &logCtx, &logContext{
		logID:     l.idGenerator.NewLogID(ctx),
		startTime: time.Now(),
	})
}

func (l *logger) ContextWithCapture(ctx context.Context, operationName string) (context.Context, Capture) {
	lgCtx := &logContext{
		operationName: operationName,
		startTime:     time.Now(),
	}
	if parent, ok := ctx.Value(&logCtx).(*logContext); ok {
		lgCtx.logID = parent.logID
		lgCtx.updateID = parent.updateID
	} else {
		lgCtx.logID = l.idGenerator.NewLogID(ctx)
	}

	ctx = context.WithValue(ctx, &logCtx, lgCtx)
	return ctx, func(attrs ...zap.Field) {
		attrs = append(attrs, lgCtx.fields()...)
		attrs = append(attrs, zap.String(durationKey, time.Since(lgCtx.startTime).String()))
		l.lg.Info(lgCtx.operationName, attrs...)
	}
}

type IDGenerator interface {
	NewLogID(ctx context.Context) LogID
}

// randomIDGenerator is shared by every dispatch worker, so reads of the
// ChaCha8 source are serialized.
type randomIDGenerator struct {
	mu         sync.Mutex
	randSource *rand.ChaCha8
}

var _ IDGenerator = &randomIDGenerator{}

// NewLogID returns a non-zero log ID from a randomly-chosen sequence.
func (gen *randomIDGenerator) NewLogID(context.Context) LogID {
	gen.mu.Lock()
	defer gen.mu.Unlock()

	sid := LogID{}
	for {
		_, _ = gen.randSource.Read(sid[:])
		if sid.IsValid() {
			break
		}
	}
	return sid
}

func defaultIDGenerator() IDGenerator {
	var seed [32]byte
	_ = binary.Read(crand.Reader, binary.LittleEndian, &seed)
	return &randomIDGenerator{randSource: rand.NewChaCha8(seed)}
}
