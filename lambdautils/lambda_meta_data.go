package lambdautils

import (
	"context"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LambdaMetaData stored details about the current lambda context.
type LambdaMetaData struct {
	FunctionName    string
	FunctionVersion string
	LogGroupName    string
	LogStreamName   string
	MemoryLimitInMB int
	Context         *lambdacontext.LambdaContext
}

// GetLambdaMetaData returns MetaData extracted from the current lambda context.
func GetLambdaMetaData(ctx context.Context) LambdaMetaData {
	lm := LambdaMetaData{
		FunctionName:    lambdacontext.FunctionName,
		FunctionVersion: lambdacontext.FunctionVersion,
		LogGroupName:    lambdacontext.LogGroupName,
		LogStreamName:   lambdacontext.LogStreamName,
		MemoryLimitInMB: lambdacontext.MemoryLimitInMB,
	}

	lm.Context, _ = lambdacontext.FromContext(ctx)
	return lm
}

// RequestID returns the aws request id of the invocation, empty when there is
// no lambda context.
func (lm LambdaMetaData) RequestID() string {
	if lm.Context == nil {
		return ""
	}

	return lm.Context.AwsRequestID
}

// Fields returns the zap fields identifying the invocation.
func (lm LambdaMetaData) Fields() []zap.Field {
	return []zap.Field{
		zap.String("function", lm.FunctionName),
		zap.String("version", lm.FunctionVersion),
		zap.String("requestId", lm.RequestID()),
	}
}

// WithRequestID returns ctx unchanged when it carries a lambda context with a
// request id. Otherwise it returns a context holding a lambda context with a
// generated uuid as request id, so local invocations still correlate logs.
func WithRequestID(ctx context.Context) context.Context {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return ctx
	}

	return lambdacontext.NewContext(ctx, &lambdacontext.LambdaContext{AwsRequestID: uuid.NewString()})
}

// Logger returns base annotated with the invocation fields found in ctx.
func Logger(ctx context.Context, base *zap.Logger) *zap.Logger {
	return base.With(GetLambdaMetaData(ctx).Fields()...)
}
