package logger

import (
	"go.uber.org/zap"
)

func NewSugaredLogger() (*zap.SugaredLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
