package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Chrome is the Session implementation backed by a real Chrome instance
// driven over the DevTools protocol.
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
}

// NewChrome launches a Chrome instance and returns a ready Session. The
// caller owns the session for the run's lifetime and must Close it on every
// exit path.
func NewChrome(parent context.Context, headless bool) (*Chrome, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	taskCtx, cancel := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so launch failures surface
	// here instead of on the first navigation.
	if err := chromedp.Run(taskCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	return &Chrome{ctx: taskCtx, cancel: cancel, allocCancel: allocCancel}, nil
}

// run executes chromedp actions under the caller's deadline.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := c.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(c.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) Location(ctx context.Context) (string, error) {
	var loc string
	if err := c.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return loc, nil
}

func (c *Chrome) Evaluate(ctx context.Context, js string, out any) error {
	if err := c.run(ctx, chromedp.Evaluate(js, out)); err != nil {
		return fmt.Errorf("evaluating script: %w", err)
	}
	return nil
}

func (c *Chrome) Fill(ctx context.Context, selector, value string) error {
	if err := c.run(ctx,
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("filling %s: %w", selector, err)
	}
	return nil
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	if err := c.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("clicking %s: %w", selector, err)
	}
	return nil
}

func (c *Chrome) Cookies(ctx context.Context) ([]Cookie, error) {
	var cookies []Cookie
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		raw, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, rc := range raw {
			cookies = append(cookies, Cookie{
				Name:   rc.Name,
				Value:  rc.Value,
				Domain: rc.Domain,
				Path:   rc.Path,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}
	return cookies, nil
}

func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		// Graceful browser shutdown first, then tear down the allocator.
		_ = chromedp.Cancel(c.ctx)
		c.cancel()
		c.allocCancel()
	})
	return nil
}
