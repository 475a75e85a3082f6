package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCtx(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, defaultLogger, Ctx(ctx))

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	ctx = With(ctx, l)
	assert.Equal(t, l, Ctx(ctx))

	Ctx(ctx).Info("forecast ready", "final_soc", 42.5)
	assert.Contains(t, buf.String(), "final_soc=42.5")
}
