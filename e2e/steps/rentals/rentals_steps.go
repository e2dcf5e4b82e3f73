package rentals

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"rentoo/internal/app"
	"rentoo/internal/domain"
	"rentoo/internal/rental"
	"rentoo/internal/ui"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Client(ctx context.Context, name string) (*app.App, error)
	Item(title string) (domain.Item, error)
	SetRental(r *domain.Rental)
	Rental() (*domain.Rental, error)
	SetError(err error)
}

// RegisterSteps registers rental, message and notification step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &rentalSteps{tc: tc}

	ctx.Step(`^"([^"]*)" requests to rent "([^"]*)" from (\d+) to (\d+) days from now$`, steps.request)
	ctx.Step(`^"([^"]*)" (confirms|rejects|completes) the rental$`, steps.apply)
	ctx.Step(`^"([^"]*)" tries to confirm the rental through the API$`, steps.confirmDirect)
	ctx.Step(`^"([^"]*)" sends "([^"]*)" about the rental$`, steps.send)
	ctx.Step(`^"([^"]*)" marks the latest notification read twice$`, steps.markLatestReadTwice)

	ctx.Step(`^the rental total is (\d+(?:\.\d+)?)$`, steps.totalIs)
	ctx.Step(`^"([^"]*)" sees the rental as "([^"]*)" among (all|renter|owner) rentals$`, steps.seesRental)
	ctx.Step(`^"([^"]*)" is (not )?offered to (confirm|reject|complete) the rental as (all|renter|owner)$`, steps.offered)
	ctx.Step(`^"([^"]*)" is not offered to rent "([^"]*)"$`, steps.notRentable)
	ctx.Step(`^"([^"]*)" sees the message "([^"]*)" in the conversation$`, steps.seesMessage)
	ctx.Step(`^"([^"]*)" has (\d+) unread notifications?$`, steps.unread)
	ctx.Step(`^"([^"]*)" has a notification "([^"]*)"$`, steps.hasNotification)
}

type rentalSteps struct {
	tc TestContext
}

func daysFromNow(n string) (string, error) {
	days, err := strconv.Atoi(n)
	if err != nil {
		return "", err
	}
	return time.Now().UTC().AddDate(0, 0, days).Format(domain.DateLayout), nil
}

func (s *rentalSteps) request(ctx context.Context, name, title, from, to string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	item, err := c.Catalog.Item(ctx, s.itemID(title))
	if err != nil {
		return err
	}
	start, err := daysFromNow(from)
	if err != nil {
		return err
	}
	end, err := daysFromNow(to)
	if err != nil {
		return err
	}

	r, err := c.Rentals.RequestRental(ctx, *item, start, end)
	s.tc.SetError(err)
	if err != nil {
		return err
	}
	s.tc.SetRental(r)
	return nil
}

func (s *rentalSteps) apply(ctx context.Context, name, verb string) error {
	c, r, err := s.current(ctx, name)
	if err != nil {
		return err
	}
	actions := map[string]rental.Action{
		"confirms":  rental.ActionConfirm,
		"rejects":   rental.ActionReject,
		"completes": rental.ActionComplete,
	}
	updated, err := c.Rentals.Apply(ctx, *r, actions[verb])
	s.tc.SetError(err)
	if err != nil {
		return err
	}
	s.tc.SetRental(updated)
	return nil
}

// confirmDirect skips the client's action gating so the backend decides.
func (s *rentalSteps) confirmDirect(ctx context.Context, name string) error {
	c, r, err := s.current(ctx, name)
	if err != nil {
		return err
	}
	_, err = c.API.Rentals.Confirm(ctx, r.ID, true)
	s.tc.SetError(err)
	return nil
}

func (s *rentalSteps) send(ctx context.Context, name, text string) error {
	c, r, err := s.current(ctx, name)
	if err != nil {
		return err
	}
	_, err = c.Inbox.Send(ctx, *r, text)
	return err
}

func (s *rentalSteps) markLatestReadTwice(ctx context.Context, name string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	ns, err := c.Inbox.Notifications(ctx, false)
	if err != nil {
		return err
	}
	if len(ns) == 0 {
		return fmt.Errorf("%s has no notifications", name)
	}
	for i := 0; i < 2; i++ {
		if err := c.Inbox.MarkNotificationRead(ctx, ns[0].ID); err != nil {
			return fmt.Errorf("mark read attempt %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *rentalSteps) totalIs(_ context.Context, total string) error {
	r, err := s.tc.Rental()
	if err != nil {
		return err
	}
	want, err := strconv.ParseFloat(total, 64)
	if err != nil {
		return err
	}
	if r.TotalPrice != want {
		return fmt.Errorf("expected total %v, got %v", want, r.TotalPrice)
	}
	return nil
}

func (s *rentalSteps) seesRental(ctx context.Context, name, status, role string) error {
	c, r, err := s.current(ctx, name)
	if err != nil {
		return err
	}
	list, err := c.Rentals.List(ctx, domain.Role(role))
	if err != nil {
		return err
	}
	for _, got := range list {
		if got.ID != r.ID {
			continue
		}
		if string(got.Status) != status {
			return fmt.Errorf("expected rental %s to be %s, got %s", r.ID, status, got.Status)
		}
		return nil
	}
	return fmt.Errorf("rental %s not among %s's %s rentals", r.ID, name, role)
}

func (s *rentalSteps) offered(ctx context.Context, name, not, action, role string) error {
	c, r, err := s.current(ctx, name)
	if err != nil {
		return err
	}
	fresh, err := c.Rentals.Get(ctx, r.ID)
	if err != nil {
		return err
	}
	user := c.Session.CurrentUser()
	if user == nil {
		return fmt.Errorf("%s is not logged in", name)
	}

	got := rental.Offered(*fresh, user.ID, domain.Role(role), rental.Action(action))
	if want := not == ""; got != want {
		return fmt.Errorf("expected %s offered=%v, got %v (status %s)", action, want, got, fresh.Status)
	}
	return nil
}

func (s *rentalSteps) notRentable(ctx context.Context, name, title string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	item, err := c.Catalog.Item(ctx, s.itemID(title))
	if err != nil {
		return err
	}
	if ui.CanRent(*item, c.Session.CurrentUser()) {
		return fmt.Errorf("expected no rent action on %s (status %s)", title, item.Status)
	}

	tomorrow, _ := daysFromNow("1")
	_, err = c.Rentals.RequestRental(ctx, *item, tomorrow, tomorrow)
	if !errors.Is(err, rental.ErrItemNotRentable) {
		return fmt.Errorf("expected the request to be refused locally, got %v", err)
	}
	return nil
}

func (s *rentalSteps) seesMessage(ctx context.Context, name, text string) error {
	c, r, err := s.current(ctx, name)
	if err != nil {
		return err
	}
	msgs, err := c.Inbox.Conversation(ctx, r.ID)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if m.Content == text {
			return nil
		}
	}
	return fmt.Errorf("message %q not in the conversation of %s", text, r.ID)
}

func (s *rentalSteps) unread(ctx context.Context, name string, count int) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	n, err := c.Inbox.UnreadCount(ctx)
	if err != nil {
		return err
	}
	if n != count {
		return fmt.Errorf("expected %d unread notifications for %s, got %d", count, name, n)
	}
	return nil
}

func (s *rentalSteps) hasNotification(ctx context.Context, name, text string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	ns, err := c.Inbox.Notifications(ctx, false)
	if err != nil {
		return err
	}
	for _, n := range ns {
		if n.Title == text || strings.Contains(n.Content, text) {
			return nil
		}
	}
	return fmt.Errorf("no notification %q for %s", text, name)
}

func (s *rentalSteps) current(ctx context.Context, name string) (*app.App, *domain.Rental, error) {
	r, err := s.tc.Rental()
	if err != nil {
		return nil, nil, err
	}
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	return c, r, nil
}

func (s *rentalSteps) itemID(title string) string {
	item, err := s.tc.Item(title)
	if err != nil {
		return title
	}
	return item.ID
}
