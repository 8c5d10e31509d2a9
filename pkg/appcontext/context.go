package appcontext

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextId int

const (
	rulePathKeyId contextId = iota
	accountKeyId
	fileNameKeyId
	requestIdKeyId
)

func WithRequestId(ctx context.Context, requestId string) context.Context {
	return context.WithValue(ctx, requestIdKeyId, requestId)
}

func WithRulePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, rulePathKeyId, path)
}

func WithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, accountKeyId, account)
}

func WithFileName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, fileNameKeyId, name)
}

func LoggerFromContext(logger logrus.FieldLogger, ctx context.Context) logrus.FieldLogger {
	if ctx == nil {
		return logger
	}

	result := logger

	if ctxRulePath, ok := ctx.Value(rulePathKeyId).(string); ok {
		result = result.WithField("rule", ctxRulePath)
	}

	if ctxAccount, ok := ctx.Value(accountKeyId).(string); ok && ctxAccount != "" {
		result = result.WithField("account", ctxAccount)
	}

	if ctxFileName, ok := ctx.Value(fileNameKeyId).(string); ok && ctxFileName != "" {
		result = result.WithField("file", ctxFileName)
	}

	if ctxRequestId, ok := ctx.Value(requestIdKeyId).(string); ok && ctxRequestId != "" {
		result = result.WithField("request_id", ctxRequestId)
	}

	return result
}
