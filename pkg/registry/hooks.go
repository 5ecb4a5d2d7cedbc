package registry

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jingkaihe/hushprint/internal/errx"
	"github.com/jingkaihe/hushprint/pkg/hooks"
)

const hooksPath = "/hooks"

type hooksPayload struct {
	Hooks hooks.List `json:"hooks"`
}

type hookedPayload struct {
	Hooked hooks.List `json:"hooked"`
}

// FetchHooks returns the stored hook list. It never fails: a transport
// error, a non-2xx status or an undecodable body yields an empty list.
// Entries with a blank node or method and repeats of an earlier pair are
// dropped.
func (c *Client) FetchHooks(ctx context.Context) hooks.List {
	var payload hooksPayload
	if err := c.getJSON(ctx, hooksPath, &payload); err != nil {
		c.logger.Warn("fetch hooks failed, using empty list", "error", err)
		return hooks.List{}
	}
	list := hooks.Normalize(payload.Hooks)
	if dropped := len(payload.Hooks) - len(list); dropped > 0 {
		c.logger.Warn("dropped invalid or duplicate hooks from registry", "received", len(payload.Hooks), "dropped", dropped)
	}
	return list
}

// ReplaceHooks overwrites the stored list with list and returns how many
// entries the host actually activated. That count may be lower than
// len(list).
func (c *Client) ReplaceHooks(ctx context.Context, list hooks.List) (int, error) {
	if list == nil {
		list = hooks.List{}
	}
	status, data, err := c.do(ctx, http.MethodPost, hooksPath, hooksPayload{Hooks: list})
	if err != nil {
		return 0, errx.Wrap(ErrSaveFailed, err)
	}
	if !isSuccess(status) {
		return 0, &StatusError{Err: ErrSaveFailed, StatusCode: status, Message: errorMessage(data)}
	}

	var payload hookedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, errx.Wrap(ErrSaveFailed, errx.Wrap(ErrDecodeResponse, err))
	}
	applied := len(payload.Hooked)
	if applied < len(list) {
		c.logger.Info("host activated fewer hooks than submitted", "submitted", len(list), "applied", applied)
	}
	return applied, nil
}

// ResetToDefault deletes the user override so the store falls back to its
// defaults. The acknowledgement body is not interpreted.
func (c *Client) ResetToDefault(ctx context.Context) error {
	status, data, err := c.do(ctx, http.MethodDelete, hooksPath, nil)
	if err != nil {
		return errx.Wrap(ErrResetFailed, err)
	}
	if !isSuccess(status) {
		return &StatusError{Err: ErrResetFailed, StatusCode: status, Message: errorMessage(data)}
	}
	return nil
}
