// Package fault turns unexpected errors into the opaque internal error
// callers see, logging the cause once.
package fault

import (
	"context"
	"fmt"
	"log/slog"

	"p2p-lending/internal/domain/errs"
)

// Surface returns err unchanged when it is an expected domain outcome.
// Anything else is logged with attrs and replaced by errs.ErrInternal.
func Surface(ctx context.Context, log *slog.Logger, op string, err error, attrs ...any) error {
	if err == nil || errs.IsExpected(err) {
		return err
	}
	log.ErrorContext(ctx, op+" failed", append(attrs, "err", err)...)
	return fmt.Errorf("%w: %s", errs.ErrInternal, op)
}
