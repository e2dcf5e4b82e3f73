package auth

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"rentoo/internal/apiclient"
	"rentoo/internal/app"
	"rentoo/internal/session"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Client(ctx context.Context, name string) (*app.App, error)
	Reload(ctx context.Context, name string) (*app.App, error)
	StoredTokens(name string) (session.Tokens, error)
	Email(name string) string
	Password() string
	Output(name string) *bytes.Buffer
	SetError(err error)
	LastError() error
}

// RegisterSteps registers session and navigation step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^"([^"]*)" (?:has registered|registers)$`, steps.register)
	ctx.Step(`^"([^"]*)" (?:logs|has logged) out$`, steps.logout)
	ctx.Step(`^"([^"]*)" logs in$`, steps.login)
	ctx.Step(`^"([^"]*)" logs in with password "([^"]*)"$`, steps.loginWithPassword)
	ctx.Step(`^"([^"]*)" reloads the client$`, steps.reload)
	ctx.Step(`^"([^"]*)" opens "([^"]*)"$`, steps.open)

	ctx.Step(`^"([^"]*)" is logged in$`, steps.isLoggedIn)
	ctx.Step(`^"([^"]*)" is not logged in$`, steps.isNotLoggedIn)
	ctx.Step(`^"([^"]*)" is on "([^"]*)"$`, steps.isOn)
	ctx.Step(`^"([^"]*)" has no stored tokens$`, steps.hasNoTokens)
	ctx.Step(`^"([^"]*)" has both tokens stored$`, steps.hasBothTokens)
	ctx.Step(`^"([^"]*)" sees "([^"]*)"$`, steps.sees)
	ctx.Step(`^"([^"]*)" does not see "([^"]*)"$`, steps.doesNotSee)
	ctx.Step(`^the request fails with "([^"]*)"$`, steps.requestFails)
}

type authSteps struct {
	tc TestContext
}

func (s *authSteps) register(ctx context.Context, name string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	_, err = c.Session.Register(ctx, s.tc.Email(name), name, s.tc.Password())
	return err
}

func (s *authSteps) logout(ctx context.Context, name string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	return c.Session.Logout()
}

func (s *authSteps) login(ctx context.Context, name string) error {
	return s.loginWithPassword(ctx, name, s.tc.Password())
}

// loginWithPassword records a failure instead of failing the step so the
// scenario can assert on it.
func (s *authSteps) loginWithPassword(ctx context.Context, name, password string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	_, err = c.Session.Login(ctx, s.tc.Email(name), password)
	s.tc.SetError(err)
	return nil
}

func (s *authSteps) reload(ctx context.Context, name string) error {
	_, err := s.tc.Reload(ctx, name)
	return err
}

func (s *authSteps) open(ctx context.Context, name, location string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	out := s.tc.Output(name)
	out.Reset()
	_, err = c.Open(ctx, location, out)
	s.tc.SetError(err)
	return nil
}

func (s *authSteps) isLoggedIn(ctx context.Context, name string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	snap := c.Session.Snapshot()
	user := snap.User
	if !c.Session.IsAuthenticated() || !snap.Authenticated() {
		return fmt.Errorf("expected %s to be logged in", name)
	}
	if user.Email != s.tc.Email(name) {
		return fmt.Errorf("expected to be logged in as %s, got %s", s.tc.Email(name), user.Email)
	}
	return nil
}

func (s *authSteps) isNotLoggedIn(ctx context.Context, name string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	if c.Session.IsAuthenticated() || c.Session.AccessToken() != "" {
		return fmt.Errorf("expected %s to be logged out", name)
	}
	return nil
}

func (s *authSteps) isOn(ctx context.Context, name, location string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	if got := c.History.Current(); got != location {
		return fmt.Errorf("expected %s to be on %s, got %s", name, location, got)
	}
	return nil
}

func (s *authSteps) hasNoTokens(_ context.Context, name string) error {
	t, err := s.tc.StoredTokens(name)
	if err != nil {
		return err
	}
	if t.Access != "" || t.Refresh != "" {
		return fmt.Errorf("expected no stored tokens for %s", name)
	}
	return nil
}

func (s *authSteps) hasBothTokens(_ context.Context, name string) error {
	t, err := s.tc.StoredTokens(name)
	if err != nil {
		return err
	}
	if t.Access == "" || t.Refresh == "" {
		return fmt.Errorf("expected access and refresh tokens for %s", name)
	}
	return nil
}

func (s *authSteps) sees(_ context.Context, name, text string) error {
	if out := s.tc.Output(name).String(); !strings.Contains(out, text) {
		return fmt.Errorf("expected %q in output of %s:\n%s", text, name, out)
	}
	return nil
}

func (s *authSteps) doesNotSee(_ context.Context, name, text string) error {
	if out := s.tc.Output(name).String(); strings.Contains(out, text) {
		return fmt.Errorf("did not expect %q in output of %s:\n%s", text, name, out)
	}
	return nil
}

func (s *authSteps) requestFails(_ context.Context, message string) error {
	err := s.tc.LastError()
	if err == nil {
		return fmt.Errorf("expected the last request to fail with %q", message)
	}
	if got := apiclient.UserMessage(err); !strings.Contains(got, message) {
		return fmt.Errorf("expected error %q, got %q", message, got)
	}
	return nil
}
