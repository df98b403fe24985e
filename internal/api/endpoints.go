package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"tracepay/internal/core"
)

// Login authenticates and stores the returned token in the session.
func (c *Client) Login(ctx context.Context, creds core.Credentials) (core.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", creds)
}

// Register creates an account and stores the returned token in the session.
func (c *Client) Register(ctx context.Context, creds core.Credentials) (core.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", creds)
}

// RefreshToken exchanges the current token for a new one.
func (c *Client) RefreshToken(ctx context.Context) (core.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/refresh", nil)
}

func (c *Client) authenticate(ctx context.Context, endpoint string, body any) (core.AuthResponse, error) {
	if creds, ok := body.(core.Credentials); ok {
		if err := creds.Validate(); err != nil {
			return core.AuthResponse{}, err
		}
	}
	var out core.AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, endpoint: endpoint, body: body}, &out); err != nil {
		return core.AuthResponse{}, err
	}
	if c.session != nil {
		if err := c.session.SetToken(ctx, out.AccessToken); err != nil {
			return out, fmt.Errorf("save token: %w", err)
		}
		if err := c.session.SetUserID(ctx, out.UserID); err != nil {
			return out, fmt.Errorf("save user id: %w", err)
		}
	}
	return out, nil
}

// Logout forgets the local session. The backend keeps no session state.
func (c *Client) Logout(ctx context.Context) error {
	if c.session == nil {
		return nil
	}
	return c.session.Clear(ctx)
}

func (c *Client) Me(ctx context.Context) (core.Me, error) {
	var out core.Me
	err := c.do(ctx, request{endpoint: "/auth/me"}, &out)
	return out, err
}

func (c *Client) OverviewStats(ctx context.Context) (core.OverviewStats, error) {
	var out core.OverviewStats
	err := c.do(ctx, request{endpoint: "/admin/stats/overview", timeout: c.statsTimeout}, &out)
	return out, err
}

func (c *Client) RegionalStats(ctx context.Context) ([]core.RegionalStat, error) {
	var out []core.RegionalStat
	err := c.do(ctx, request{endpoint: "/admin/stats/regional", timeout: c.statsTimeout}, &out)
	return out, err
}

// TemporalStats returns daily analysis averages for the last days days.
func (c *Client) TemporalStats(ctx context.Context, days int) (core.TemporalStats, error) {
	if err := core.ValidateDays(days); err != nil {
		return core.TemporalStats{}, err
	}
	var out core.TemporalStats
	endpoint := "/admin/stats/temporal?days=" + strconv.Itoa(days)
	err := c.do(ctx, request{endpoint: endpoint, timeout: c.statsTimeout}, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context, page core.PageRequest) (core.UsersPage, error) {
	if err := page.Validate(); err != nil {
		return core.UsersPage{}, err
	}
	q := url.Values{}
	q.Set("skip", strconv.Itoa(page.Skip))
	q.Set("limit", strconv.Itoa(page.Limit))
	var out core.UsersPage
	err := c.do(ctx, request{endpoint: "/admin/users?" + q.Encode()}, &out)
	return out, err
}

func (c *Client) ForensicFeed(ctx context.Context, limit int) ([]core.ForensicEntry, error) {
	if err := (core.PageRequest{Limit: limit}).Validate(); err != nil {
		return nil, err
	}
	var out []core.ForensicEntry
	err := c.do(ctx, request{endpoint: "/admin/forensic-feed?limit=" + strconv.Itoa(limit)}, &out)
	return out, err
}

// SyncAll asks the backend to resync every linked account. The backend
// returns immediately and runs the sync in the background.
func (c *Client) SyncAll(ctx context.Context) (core.StatusMessage, error) {
	var out core.StatusMessage
	err := c.do(ctx, request{method: http.MethodPost, endpoint: "/admin/sync-all"}, &out)
	return out, err
}
