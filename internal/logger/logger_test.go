package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "Console output mode", jsonOutput: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			err := Initialize(tt.jsonOutput)
			assert.NoError(t, err)
			assert.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)

			Logger = zap.NewNop().Sugar()
		})
	}
}

func TestFieldsFromContext(t *testing.T) {
	ctx := WithComponent(WithRunID(context.Background(), "run-1"), "pipeline")

	fields := FieldsFromContext(ctx)
	assert.Equal(t, []interface{}{FieldRunID, "run-1", FieldComponent, "pipeline"}, fields)
	assert.Empty(t, FieldsFromContext(context.Background()))
}

func TestFromContextAttachesFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	previous := Logger
	Logger = zap.New(core).Sugar()
	defer func() { Logger = previous }()

	FromContext(WithRunID(context.Background(), "run-42")).Infow("selected", FieldMethod, "KMeans")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctxMap := entries[0].ContextMap()
		assert.Equal(t, "run-42", ctxMap[FieldRunID])
		assert.Equal(t, "KMeans", ctxMap[FieldMethod])
	}
}
