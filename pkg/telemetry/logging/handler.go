package logging

import (
	"context"
	"log/slog"
)

// redactingHandler wraps a slog.Handler so every record that reaches it —
// not just ones routed through Logger's own methods — picks up the
// request-scoped context fields and has credential-shaped values scrubbed.
// Logger installs this as the handler behind its *slog.Logger, so
// slog.SetDefault(logger.Slog()) makes it the handler for every downstream
// slog call on the request path, including plain slog.InfoContext calls
// from middleware and the proxy engine.
type redactingHandler struct {
	next     slog.Handler
	redactor *Redactor
}

func newRedactingHandler(next slog.Handler, redactor *Redactor) slog.Handler {
	return &redactingHandler{next: next, redactor: redactor}
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)

	fields := extractContextFields(ctx)
	for i := 0; i+1 < len(fields); i += 2 {
		key, _ := fields[i].(string)
		out.AddAttrs(h.redactAttr(slog.Any(key, fields[i+1])))
	}

	record.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})

	return h.next.Handle(ctx, out)
}

func (h *redactingHandler) redactAttr(a slog.Attr) slog.Attr {
	if h.redactor == nil {
		return a
	}
	if isSensitiveKey(a.Key) {
		return slog.Any(a.Key, redactValue(a.Value.Any()))
	}
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, h.redactor.redactString(a.Value.String()))
	}
	return a
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &redactingHandler{next: h.next.WithAttrs(attrs), redactor: h.redactor}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{next: h.next.WithGroup(name), redactor: h.redactor}
}
